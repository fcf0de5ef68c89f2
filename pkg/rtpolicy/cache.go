// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtpolicy

import "sync"

var (
	capOnce            sync.Once
	cachedCapabilities Capabilities
)
