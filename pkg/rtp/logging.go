package rtp

import "github.com/sirupsen/logrus"

// defaultLogger returns the engine-scoped logger for a Config, falling back
// to the standard logrus logger tagged with a component field when the
// caller left Logger unset. This replaces the process-wide logger singleton
// the original session used.
func defaultLogger(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	return logrus.StandardLogger().WithField("component", "efflux")
}
