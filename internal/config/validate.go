package config

import "fmt"

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults and sanity-checks a config before it is
// stored or hot-swapped in.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Ingest.Workers <= 0 {
		out.Ingest.Workers = 2
	}
	if out.Ingest.Workers > 32 {
		res.addWarn("ingest.workers is very high (%d); sqlite has a single writer.", out.Ingest.Workers)
	}
	if out.Ingest.QueueSize <= 0 {
		out.Ingest.QueueSize = 256
	}
	if out.Ingest.RatePerSec <= 0 {
		out.Ingest.RatePerSec = 20
	}
	if out.Ingest.Burst <= 0 {
		out.Ingest.Burst = 40
	}

	if out.Tasks.SweepSeconds <= 0 {
		res.addErr("tasks.sweep_seconds must be > 0")
	} else if out.Tasks.SweepSeconds < 5 {
		res.addWarn("tasks.sweep_seconds is very low (%d); the sweep re-reads the events table each tick.", out.Tasks.SweepSeconds)
	}
	if out.Tasks.ReconcileSeconds <= 0 {
		res.addErr("tasks.reconcile_seconds must be > 0")
	}

	if out.Dashboard.GraphDays <= 0 {
		out.Dashboard.GraphDays = 90
	}
	if out.Dashboard.UpcomingLimit <= 0 {
		out.Dashboard.UpcomingLimit = 10
	}

	return out, res
}
