package bhc

import "github.com/sirupsen/logrus"

// NewLogger returns a logrus logger configured for the engine's diagnostic
// output. Run accepts an optional *logrus.Logger via RunWithLogger; when
// none is given it falls back to logrus's standard logger at Info level.
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}

func logMerge(logger *logrus.Logger, step int, left, right, merged int, wt float64) {
	logger.WithFields(logrus.Fields{
		"step":   step,
		"left":   left,
		"right":  right,
		"merged": merged,
		"wt":     wt,
	}).Debug("bhc: merge committed")
}
