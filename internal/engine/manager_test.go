package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanInstall_NoCurrentNoTarget(t *testing.T) {
	plan := planInstall([]string{"v0002", "v0001", "vXXXX"}, "", "")
	assert.Equal(t, []string{"v0001", "v0002", "vXXXX"}, plan)
}

func TestPlanInstall_TargetFiltering(t *testing.T) {
	plan := planInstall([]string{"v0001", "v0002", "vXXXX"}, "v0001", "v0002")
	assert.Equal(t, []string{"v0002"}, plan)
}

func TestPlanInstall_CurrentExcludesInstalled(t *testing.T) {
	plan := planInstall([]string{"v0001", "v0002", "vXXXX"}, "v0002", "")
	assert.Equal(t, []string{"vXXXX"}, plan)
}

func TestPlanRollback_DescendingOrder(t *testing.T) {
	plan := planRollback([]string{"v0001", "v0002", "vXXXX"}, "vXXXX", "")
	assert.Equal(t, []string{"vXXXX", "v0002", "v0001"}, plan)
}

func TestPlanRollback_TargetFiltering(t *testing.T) {
	plan := planRollback([]string{"v0001", "v0002", "vXXXX"}, "vXXXX", "v0001")
	assert.Equal(t, []string{"vXXXX", "v0002"}, plan)
}

func TestPlanRollback_NoCurrentKeepsAll(t *testing.T) {
	// Per spec: the currentVersion filter is skipped entirely when no
	// version is installed; when the version table exists but is empty, the
	// per-version isVersionLogExist check at execution time is what makes
	// this a no-op.
	plan := planRollback([]string{"v0001", "v0002"}, "", "")
	assert.Equal(t, []string{"v0002", "v0001"}, plan)
}
