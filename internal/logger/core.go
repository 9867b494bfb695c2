package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore wraps a console core and copies entries at or above minLevel to
// the DB writer.
type DBCore struct {
	zapcore.Core
	writer   *DBLogWriter
	minLevel zapcore.Level
	fields   []zapcore.Field
}

func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter, minLevel zapcore.Level) zapcore.Core {
	return &DBCore{
		Core:     baseCore,
		writer:   writer,
		minLevel: minLevel,
	}
}

// With keeps the DB tee on derived loggers.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &DBCore{
		Core:     c.Core.With(fields),
		writer:   c.writer,
		minLevel: c.minLevel,
		fields:   merged,
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= c.minLevel {
		var ip, userID string
		all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
		all = append(append(all, c.fields...), fields...)
		for _, f := range all {
			switch f.Key {
			case "ip":
				ip = f.String
			case "userId":
				userID = f.String
			}
		}

		c.writer.AddLog(LogEntry{
			Level:     entry.Level,
			Message:   entry.Message,
			IpAddress: ip,
			UserID:    userID,
			Caller:    entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
