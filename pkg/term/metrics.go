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
package term

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records the activity of one or more arenas.
type Metrics struct {
	// Interned counts the distinct nodes added to cons tables.
	Interned prometheus.Counter
	// Hits counts constructions which returned an existing node.
	Hits prometheus.Counter
	// Rewrites counts rule firings, labelled by interpretation and rule.
	Rewrites *prometheus.CounterVec
}

// NewMetrics constructs a set of metrics registered with a given registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	var factory = promauto.With(registry)
	//
	return &Metrics{
		Interned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "measure",
			Name:      "terms_interned_total",
			Help:      "Number of distinct terms added to cons tables.",
		}),
		Hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "measure",
			Name:      "cons_hits_total",
			Help:      "Number of term constructions satisfied by an existing term.",
		}),
		Rewrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "measure",
			Name:      "rewrites_total",
			Help:      "Number of rewrite rules fired.",
		}, []string{"interpretation", "rule"}),
	}
}

func (p *Arena) interned(hit bool) {
	switch {
	case p.metrics == nil:
		return
	case hit:
		p.metrics.Hits.Inc()
	default:
		p.metrics.Interned.Inc()
	}
}

func (p *Arena) rewritten(interpretation string, rule string) {
	if p.metrics != nil {
		p.metrics.Rewrites.WithLabelValues(interpretation, rule).Inc()
	}
}
