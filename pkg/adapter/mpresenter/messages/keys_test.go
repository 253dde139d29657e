// 指示: miu200521358
package messages

import (
	"strings"
	"testing"

	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
)

func TestAllRigWarningIDsHaveDescriptions(t *testing.T) {
	seen := map[string]struct{}{}
	for _, id := range model.RigWarningIDs {
		description := Describe(id)
		if description == "" {
			t.Fatalf("description should not be empty: %s", id)
		}
		if strings.HasPrefix(description, WarningUnknown) {
			t.Fatalf("description should be defined: %s", id)
		}
		if _, exists := seen[description]; exists {
			t.Fatalf("description should be unique: %s", description)
		}
		seen[description] = struct{}{}
	}
}

func TestDescribeUnknownWarning(t *testing.T) {
	description := Describe("RigWarningNope")
	if !strings.Contains(description, "RigWarningNope") {
		t.Fatalf("unknown warning should carry its id: %s", description)
	}
}
