// Package testbed provides components for exercising the testing package.
package testbed

import (
	"fmt"

	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/state"
)

// Counter displays a count and increments it when #inc is clicked.
// OnChange, when set, is called with every new count.
func Counter(initial int, onChange func(count int)) component.Constructor {
	return component.Functional(
		component.Template(func(s state.Snapshot) string {
			return fmt.Sprintf(`<p class="label">Count</p><span id="count">%d</span><button id="inc">Increment</button>`,
				state.ValueOr(s, "count", 0))
		}),
		state.Patch{"count": initial},
		[]component.EventHandling{
			component.On("#inc", "click", func(in component.Invocation) {
				next := state.ValueOr(in.State, "count", 0) + 1
				in.Component.SetState(state.Patch{"count": next})
				if onChange != nil {
					onChange(next)
				}
			}),
		},
		nil,
	)
}

// Link renders an anchor that navigates to target when clicked.
func Link(label, target string) component.Constructor {
	return component.Functional(
		component.Template(func(state.Snapshot) string {
			return fmt.Sprintf(`<a id="link" href="%s">%s</a>`, target, label)
		}),
		nil,
		[]component.EventHandling{
			component.On("#link", "click", func(in component.Invocation) {
				in.Component.Navigate(target)
			}),
		},
		nil,
	)
}
