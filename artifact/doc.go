/*
Package artifact writes the rendered dashboard page in a way that readers, such
as a web server serving the page, never see a torn or empty file.

New content is always written into a temporary file inside the same directory
as the artifact and then atomically renamed over the artifact. A failed or
interrupted write thus leaves the previous artifact untouched. Replacing is the
only mutation, so no further locking is needed between writers and readers.

Temporary files left behind by a process that died mid-write can be removed
using [Sweep].
*/
package artifact
