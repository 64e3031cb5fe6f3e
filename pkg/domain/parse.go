// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse a domain from its textual form.  This accepts the forms produced by
// String (e.g. "int(3)", "real" or "real(2,3)"), along with a bare integer as
// shorthand for a discrete domain of that size.
func Parse(text string) (Domain, error) {
	var s = strings.TrimSpace(text)
	//
	switch {
	case s == "real":
		return Real(), nil
	case strings.HasPrefix(s, "int(") && strings.HasSuffix(s, ")"):
		return parseDiscrete(s[4:len(s)-1], text)
	case strings.HasPrefix(s, "real(") && strings.HasSuffix(s, ")"):
		var shape []uint
		//
		for _, dim := range strings.Split(s[5:len(s)-1], ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(dim), 10, 32)
			if err != nil {
				return Domain{}, fmt.Errorf("invalid dimension in domain \"%s\"", text)
			}
			//
			shape = append(shape, uint(n))
		}
		//
		return Real(shape...), nil
	default:
		return parseDiscrete(s, text)
	}
}

func parseDiscrete(size string, text string) (Domain, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(size), 10, 32)
	//
	if err != nil || n == 0 {
		return Domain{}, fmt.Errorf("invalid domain \"%s\"", text)
	}
	//
	return Discrete(uint(n)), nil
}
