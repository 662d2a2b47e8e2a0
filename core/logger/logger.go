// Package logger defines the logging interface shared by every component.
package logger

// Fields carries structured key/value pairs attached to a log line.
type Fields = map[string]any

// Logger exposes printf-style methods per severity plus structured variants
// for the lines that downstream tooling parses, such as cycle outcomes.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields Fields)
	Infof(format string, args ...any)
	Infow(msg string, fields Fields)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Errorw(msg string, err error, fields Fields)
}

// CycleFields returns the fields identifying one monitoring cycle.
func CycleFields(cycle int, extra Fields) Fields {
	f := make(Fields, len(extra)+1)
	for k, v := range extra {
		f[k] = v
	}
	f["cycle"] = cycle
	return f
}
