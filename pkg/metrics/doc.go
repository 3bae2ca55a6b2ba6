// Package metrics exports delivery events as Prometheus metrics.
//
// Observer implements delivery.Observer:
//
//	reg := prometheus.NewRegistry()
//	obs, err := metrics.NewObserver(reg)
//	if err != nil {
//		return err
//	}
//	base := delivery.NewBase(delivery.WithObserver(obs))
//	http.Handle("/metrics", metrics.Handler(reg))
//
// Two collectors are registered: notifykit_delivery_events_total, counted by
// class, line, action and outcome, and notifykit_delivery_duration_seconds,
// observed for every line that ran.
package metrics
