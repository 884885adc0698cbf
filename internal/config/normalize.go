package config

import (
	"fmt"
	"strings"
)

const (
	LanguageZH = "ZH"
	LanguageEN = "EN"
	LanguageJP = "JP"
)

const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// NormalizeLanguage canonicalizes a language code. ZH_MIX_EN is accepted as
// ZH because the Chinese lexicon carries the English vocabulary.
func NormalizeLanguage(raw string) (string, error) {
	lang := strings.ToUpper(strings.TrimSpace(raw))
	if lang == "" {
		lang = LanguageZH
	}
	switch lang {
	case LanguageZH, LanguageEN, LanguageJP:
		return lang, nil
	case "ZH_MIX_EN", "ZH-MIX-EN":
		return LanguageZH, nil
	default:
		return "", fmt.Errorf("invalid language %q (expected %s|%s|%s)", raw, LanguageZH, LanguageEN, LanguageJP)
	}
}

func NormalizeTraceExporter(raw string) (string, error) {
	exporter := strings.ToLower(strings.TrimSpace(raw))
	if exporter == "" {
		exporter = TraceExporterNone
	}
	switch exporter {
	case TraceExporterNone, TraceExporterStdout, TraceExporterOTLP:
		return exporter, nil
	default:
		return "", fmt.Errorf(
			"invalid trace exporter %q (expected %s|%s|%s)",
			raw,
			TraceExporterNone,
			TraceExporterStdout,
			TraceExporterOTLP,
		)
	}
}
