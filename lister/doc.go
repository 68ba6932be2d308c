/*
Package lister defines the capability interface between the dashboard renderer
and the container runtime it asks for running workloads.

The renderer never talks to a runtime API directly; instead, it is handed a
[Lister] that answers a single question: which workloads are running right now,
and which of their ports are bound to the host?

Runtime-specific listers are plugins living in sub-packages, such as “moby”
(Docker) and “podman”. They register a [Factory] with the plugin group of this
package. The sub-package “all” pulls in all runtime plugins supported
out-of-the-box, and [New] then creates a lister for a runtime by its plugin
name.
*/
package lister
