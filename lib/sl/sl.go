package sl

import (
	"log/slog"
)

func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Email masks the local part of an address, keeping the first character and the domain
func Email(key, value string) slog.Attr {
	r := "?"
	for i := 0; i < len(value); i++ {
		if value[i] == '@' {
			if i > 0 {
				r = value[0:1] + "***" + value[i:]
			} else {
				r = "***" + value[i:]
			}
			break
		}
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(r),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}
