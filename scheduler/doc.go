/*
Package scheduler decides when render passes run: once, periodically, and on
demand, but never two passes at the same time.

A [Scheduler] drives a renderer (usually a [dockdash.Renderer]) through a
single mutual-exclusion gate shared by all triggers:

  - [Scheduler.Once] runs a single pass, for one-shot mode.
  - [Scheduler.Run] runs a startup pass and then a pass every interval, where
    the interval always counts from the end of the previous pass. A failed
    pass neither stops the loop nor shortens the next wait.
  - [Scheduler.Trigger] runs an out-of-band pass, such as for a refresh
    request. A trigger arriving while a pass is in flight doesn't start a
    second pass, but instead waits for the in-flight pass and reports its
    outcome.
  - [Scheduler.Drain] stops accepting new passes and waits (bounded by a grace
    period) for an in-flight pass to finish writing its page.

The scheduler is the only place where pass outcomes get logged.
*/
package scheduler
