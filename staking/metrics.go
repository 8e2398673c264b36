// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/leafstake/leafstake/metrics"

var (
	metricTransitions  = metrics.LazyLoadCounterVec("staking_transitions_count", []string{"op", "status"})
	metricPlanDuration = metrics.LazyLoadHistogramVec("staking_plan_duration_ms", []string{"op"}, metrics.BucketPlan)
	metricContracts    = metrics.LazyLoadGauge("staking_contracts")
	metricLeaves       = metrics.LazyLoadGauge("staking_leaves")
	metricDropped      = metrics.LazyLoadCounterVec("staking_dropped_outputs_count", []string{"reason"})
)
