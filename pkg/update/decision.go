package update

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

type Decision string

const (
	DecisionFresh     Decision = "fresh"     // Nothing installed yet
	DecisionUpgrade   Decision = "upgrade"   // Release is newer than the installed version
	DecisionSame      Decision = "same"      // Release equals the installed version
	DecisionReinstall Decision = "reinstall" // Same version, forced
	DecisionDowngrade Decision = "downgrade" // Release is older than the installed version
	DecisionUnknown   Decision = "unknown"   // Versions could not be compared
)

// CompareVersions returns -1, 0 or 1 as a is older than, equal to or newer
// than b. It errors when either side does not parse.
func CompareVersions(a, b string) (int, error) {
	av, err := goversion.NewVersion(strings.TrimSpace(a))
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", a, err)
	}
	bv, err := goversion.NewVersion(strings.TrimSpace(b))
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// Decide classifies installing target over current for the named product and
// returns a one-line message for the user.
func Decide(product, current, target string, force bool) (Decision, string) {
	if strings.TrimSpace(current) == "" {
		return DecisionFresh, fmt.Sprintf("Installing %s %s", product, target)
	}

	cmp, err := CompareVersions(current, target)
	if err != nil {
		return DecisionUnknown, fmt.Sprintf("Replacing %s %s with %s (version comparison skipped: %v)", product, current, target, err)
	}

	switch {
	case cmp < 0:
		return DecisionUpgrade, fmt.Sprintf("Updating %s: %s → %s", product, current, target)
	case cmp > 0:
		return DecisionDowngrade, fmt.Sprintf("Installing older %s release: %s → %s", product, current, target)
	case force:
		return DecisionReinstall, fmt.Sprintf("Reinstalling %s %s", product, target)
	default:
		return DecisionSame, fmt.Sprintf("%s %s is already the active installation", product, target)
	}
}

// DescribeDecision returns a short human-readable label for d.
func DescribeDecision(d Decision) string {
	switch d {
	case DecisionFresh:
		return "New installation"
	case DecisionUpgrade:
		return "Update available"
	case DecisionSame:
		return "Already at latest version"
	case DecisionReinstall:
		return "Force reinstall requested"
	case DecisionDowngrade:
		return "Downgrade requested"
	case DecisionUnknown:
		return "Version comparison unavailable"
	default:
		return string(d)
	}
}
