package version_test

import (
	"strings"
	"testing"

	"github.com/XVilka/fcd/internal/version"
)

func TestInfo(t *testing.T) {
	info := version.Info()

	for _, want := range []string{"fcd ", "Commit:", "Built:", "Go:", "OS/Arch:"} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}
}

func TestShort(t *testing.T) {
	if version.Short() != version.Version {
		t.Errorf("Short() = %q, want %q", version.Short(), version.Version)
	}
}
