package logger

import (
	"strings"
)

// MakeString - makes a string using golang string builder
func MakeString(delimeter string, message ...string) string {
	var builder strings.Builder
	for i := 0; i < len(message); i++ {
		builder.WriteString(message[i])
		if delimeter != "" && i != len(message)-1 {
			builder.WriteString(delimeter)
		}
	}
	return builder.String()
}

func getVerbose() int32 {
	if Verbosity < 0 {
		return 0
	}
	if Verbosity > 4 {
		return 4
	}
	return int32(Verbosity)
}
