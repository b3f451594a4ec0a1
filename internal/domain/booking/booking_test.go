package booking

import "testing"

func TestVerdictTable(t *testing.T) {
	tests := []struct {
		v        Verdict
		terminal bool
		outcome  Outcome
	}{
		{Verdict{Kind: WaitlistOffered, WaitlistJoined: true}, true, Success},
		{Verdict{Kind: WaitlistOffered}, false, Failed},
		{Verdict{Kind: BookingConfirmedNoDialog}, true, Success},
		{Verdict{Kind: CancelAborted}, false, Failed},
		{Verdict{Kind: ClassFull}, false, Failed},
		{Verdict{Kind: BookingWindowTooFar}, true, Failed},
		{Verdict{Kind: DailyLimitReached}, true, Failed},
		{Verdict{Kind: UnrecognizedAlert}, false, Failed},
		{Verdict{Kind: UnrecognizedError}, false, Failed},
		{Verdict{Kind: LoginRejected}, true, Failed},
	}
	for _, tt := range tests {
		t.Run(tt.v.Kind.String(), func(t *testing.T) {
			if got := tt.v.Terminal(); got != tt.terminal {
				t.Fatalf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if tt.terminal && tt.v.Outcome() != tt.outcome {
				t.Fatalf("Outcome() = %s, want %s", tt.v.Outcome(), tt.outcome)
			}
		})
	}
}

func TestSlotIndexLastWriteWins(t *testing.T) {
	x := SlotIndex{}
	x.Put(DiscoveredSlot{ClassName: "Yoga", Time: "10:00", Control: "first"})
	x.Put(DiscoveredSlot{ClassName: "Yoga", Time: "10:00", Control: "second"})
	x.Put(DiscoveredSlot{ClassName: "Yoga", Time: "11:00", Control: "third"})

	if x.Len() != 2 {
		t.Fatalf("Len = %d, want 2", x.Len())
	}
	s, ok := x.Lookup("Yoga", "10:00")
	if !ok || s.Control != "second" {
		t.Fatalf("Lookup = %+v, %v", s, ok)
	}
	if _, ok := x.Lookup("Spin", "10:00"); ok {
		t.Fatal("unexpected hit for unknown class")
	}
	if (SlotIndex{}).Empty() != true {
		t.Fatal("new index not empty")
	}
}

func TestFinishKeepsLastSlot(t *testing.T) {
	var s SessionState
	s.CurrentDay = "Tuesday, 14/01/2025"
	s.Record(Preference{Time: "19:00", ClassName: "Open Gym"})

	failed := s.Finish(Failed, ReasonAttemptsExhausted)
	if failed.ClassName != "Open Gym" || failed.TimeSlot != "19:00" {
		t.Fatalf("failed result = %+v", failed)
	}
	if neutral := s.Finish(Neutral, ReasonNoClassConfigured); neutral.ClassName != "" || neutral.TimeSlot != "" {
		t.Fatalf("neutral result carries slot: %+v", neutral)
	}
	ok := s.Finish(Success, ReasonBooked)
	if ok.ClassName != "Open Gym" || ok.TimeSlot != "19:00" {
		t.Fatalf("success result = %+v", ok)
	}
	if len(ok.Info.Bookings) != 1 || ok.Info.CurrentDate != "Tuesday, 14/01/2025" {
		t.Fatalf("info = %+v", ok.Info)
	}
}

func TestParseOutcome(t *testing.T) {
	for _, o := range []Outcome{Success, Failed, Neutral} {
		got, err := ParseOutcome(o.String())
		if err != nil || got != o {
			t.Fatalf("ParseOutcome(%q) = %v, %v", o, got, err)
		}
	}
	if _, err := ParseOutcome("maybe"); err == nil {
		t.Fatal("expected error")
	}
}
