// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package all

import (
	_ "github.com/siemens/dockdash/lister/moby"   // list Docker workloads
	_ "github.com/siemens/dockdash/lister/podman" // list podman workloads
)
