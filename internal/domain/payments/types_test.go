package payments

import "testing"

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusSuccess, StatusFailed, StatusCancelled, StatusRefunded} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StatusPending.IsTerminal() {
		t.Error("PENDING should not be terminal")
	}
}

func TestParseStatusUnknownMapsToFailed(t *testing.T) {
	if got := ParseStatus("SUCCESS"); got != StatusSuccess {
		t.Errorf("ParseStatus(SUCCESS) = %s", got)
	}
	if got := ParseStatus("whatever"); got != StatusFailed {
		t.Errorf("ParseStatus(unknown) = %s, want FAILED", got)
	}
	if got := ParseStatus(""); got != StatusFailed {
		t.Errorf("ParseStatus(empty) = %s, want FAILED", got)
	}
}

func TestValidMethod(t *testing.T) {
	for _, m := range []Method{MethodMobileMoney, MethodCard, MethodPayPal} {
		if !ValidMethod(m) {
			t.Errorf("%s should be valid", m)
		}
	}
	if ValidMethod("bitcoin") {
		t.Error("bitcoin is not a supported method")
	}
}
