// Package dialog defines the contract between the orchestration layer and the
// things it shows.
//
// A Handle is owned by whoever created it. The router and the sequential
// queues only hold references and drive the presentation lifecycle through
// Show, Hide and Close, observing dismissal through OnClosed.
//
// Window is the daemon-side handle for a renderer-owned window: the renderer
// learns about lifecycle commands from the event hub and reports user
// dismissal back through Dismissed. Lazy defers construction of a handle until
// it is first shown.
package dialog
