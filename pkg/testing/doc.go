// Package testing provides a component testing harness for Weave.
//
// # Quick Start
//
// Create a tester, mount a component, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := weavetest.NewTesterWithT(t)
//	    if _, err := tester.MountFunc("x-counter", counter); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    // Dispatch events
//	    tester.Click(weavetest.BySelector("#inc"))
//
//	    // Assert the rendered DOM
//	    if got := tester.Find(weavetest.BySelector("#count")).Text(); got != "1" {
//	        t.Errorf("expected count 1, got %s", got)
//	    }
//	}
//
// Events are delivered synchronously, so the DOM reflects every state
// change as soon as Click returns.
//
// # Routing
//
// Route places an outlet in the body and starts a router over the
// tester's in-memory history:
//
//	tester.Route("", []router.Route{{Path: "/", Component: home}})
//	tester.Back()
//
// # Faults
//
// While a tester is active, panics and errors reported by components,
// bindings and routers are recorded instead of logged. Inspect them with
// Faults and Errors.
//
// # Snapshot Testing
//
// Capture and compare the body tree, including component state:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	WEAVE_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import weavetest "github.com/go-drift/weave/pkg/testing"
package testing
