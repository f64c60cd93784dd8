package events_test

import (
	"testing"

	"github.com/civledger/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan events out to registered receivers.")
	{
		evts := events.New()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")
		if evts.Acquire("one") != ch1 {
			t.Fatalf("\t%s\tShould return the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould return the same channel for the same id.", success)

		evts.Send("viewer: block: {}")

		if got := <-ch1; got != "viewer: block: {}" {
			t.Fatalf("\t%s\tShould deliver the event to the first receiver, got %q.", failed, got)
		}
		if got := <-ch2; got != "viewer: block: {}" {
			t.Fatalf("\t%s\tShould deliver the event to the second receiver, got %q.", failed, got)
		}
		t.Logf("\t%s\tShould deliver the event to every receiver.", success)

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a receiver: %s", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close the released channel.", failed)
		}
		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould fail to release an unknown receiver.", failed)
		}
		t.Logf("\t%s\tShould close and forget released receivers.", success)

		evts.Shutdown()
		if _, open := <-ch2; open || evts.Count() != 0 {
			t.Fatalf("\t%s\tShould close every channel on shutdown.", failed)
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}
