// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"strconv"

	"code.hybscloud.com/atomix"
)

// Serial identifies a handle within the process. Serials are assigned
// by New in creation order, starting at 1.
type Serial uint32

// String formats s as "#n", the form used in log lines and errors.
func (s Serial) String() string {
	return "#" + strconv.FormatUint(uint64(s), 10)
}

// handles counts every handle created by New.
var handles atomix.Uint32

func nextSerial() Serial {
	return Serial(handles.Add(1))
}
