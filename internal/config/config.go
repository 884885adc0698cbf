package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Synth     SynthConfig     `mapstructure:"synth"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type PathsConfig struct {
	Manifest string `mapstructure:"manifest"`
	Encoder  string `mapstructure:"encoder"`
	Decoder  string `mapstructure:"decoder"`
	Lexicon  string `mapstructure:"lexicon"`
	Tokens   string `mapstructure:"tokens"`
	Speaker  string `mapstructure:"speaker"`
	Voices   string `mapstructure:"voices"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTVersion     string `mapstructure:"ort_version"`
	ORTAPIVersion  uint32 `mapstructure:"ort_api_version"`
}

// SynthConfig holds the pipeline parameters. Decoder dimensions are only
// used when the model manifest does not declare static decoder shapes.
type SynthConfig struct {
	Language        string  `mapstructure:"language"`
	Voice           string  `mapstructure:"voice"`
	Speed           float64 `mapstructure:"speed"`
	SampleRate      int     `mapstructure:"sample_rate"`
	NoiseScale      float64 `mapstructure:"noise_scale"`
	NoiseScaleW     float64 `mapstructure:"noise_scale_w"`
	SDPRatio        float64 `mapstructure:"sdp_ratio"`
	LanguageID      int64   `mapstructure:"language_id"`
	SentenceLen     int     `mapstructure:"sentence_len"`
	SentencePauseMS int     `mapstructure:"sentence_pause_ms"`
	DecoderChannels int     `mapstructure:"decoder_channels"`
	DecoderFrames   int     `mapstructure:"decoder_frames"`
	DecoderSamples  int     `mapstructure:"decoder_samples"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TelemetryConfig struct {
	ServiceName   string `mapstructure:"service_name"`
	TraceExporter string `mapstructure:"trace_exporter"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	OTLPInsecure  bool   `mapstructure:"otlp_insecure"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			Manifest: "models/manifest.json",
			Encoder:  "models/encoder.onnx",
			Decoder:  "models/decoder.onnx",
			Lexicon:  "models/lexicon.txt",
			Tokens:   "models/tokens.txt",
			Speaker:  "models/g.bin",
			Voices:   "voices/manifest.yaml",
		},
		Runtime: RuntimeConfig{
			ORTLibraryPath: "",
			ORTVersion:     "",
			ORTAPIVersion:  0,
		},
		Synth: SynthConfig{
			Language:        LanguageZH,
			Voice:           "",
			Speed:           0.8,
			SampleRate:      44100,
			NoiseScale:      0,
			NoiseScaleW:     0,
			SDPRatio:        0,
			LanguageID:      3,
			SentenceLen:     10,
			SentencePauseMS: 0,
			DecoderChannels: 192,
			DecoderFrames:   128,
			DecoderSamples:  0,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         1,
			MaxTextBytes:    4096,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "melotts",
			TraceExporter: TraceExporterNone,
			OTLPEndpoint:  "localhost:4317",
			OTLPInsecure:  true,
		},
	}
}

// flagKeys maps each flag to the nested config key it sets.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"manifest", "paths.manifest"},
	{"encoder", "paths.encoder"},
	{"decoder", "paths.decoder"},
	{"lexicon", "paths.lexicon"},
	{"token", "paths.tokens"},
	{"g", "paths.speaker"},
	{"voices", "paths.voices"},
	{"ort-lib", "runtime.ort_library_path"},
	{"ort-version", "runtime.ort_version"},
	{"ort-api-version", "runtime.ort_api_version"},
	{"language", "synth.language"},
	{"voice", "synth.voice"},
	{"speed", "synth.speed"},
	{"sample-rate", "synth.sample_rate"},
	{"noise-scale", "synth.noise_scale"},
	{"noise-scale-w", "synth.noise_scale_w"},
	{"sdp-ratio", "synth.sdp_ratio"},
	{"language-id", "synth.language_id"},
	{"sentence-len", "synth.sentence_len"},
	{"sentence-pause-ms", "synth.sentence_pause_ms"},
	{"decoder-channels", "synth.decoder_channels"},
	{"decoder-frames", "synth.decoder_frames"},
	{"decoder-samples", "synth.decoder_samples"},
	{"listen-addr", "server.listen_addr"},
	{"workers", "server.workers"},
	{"max-text-bytes", "server.max_text_bytes"},
	{"request-timeout", "server.request_timeout"},
	{"shutdown-timeout", "server.shutdown_timeout"},
	{"log-level", "log.level"},
	{"log-file", "log.file"},
	{"log-max-size-mb", "log.max_size_mb"},
	{"log-max-backups", "log.max_backups"},
	{"log-max-age-days", "log.max_age_days"},
	{"service-name", "telemetry.service_name"},
	{"trace-exporter", "telemetry.trace_exporter"},
	{"otlp-endpoint", "telemetry.otlp_endpoint"},
	{"otlp-insecure", "telemetry.otlp_insecure"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("manifest", defaults.Paths.Manifest, "Path to the ONNX graph manifest (optional when --encoder and --decoder exist)")
	fs.StringP("encoder", "e", defaults.Paths.Encoder, "Path to the encoder ONNX graph")
	fs.StringP("decoder", "d", defaults.Paths.Decoder, "Path to the decoder ONNX graph")
	fs.StringP("lexicon", "l", defaults.Paths.Lexicon, "Path to lexicon.txt")
	fs.StringP("token", "t", defaults.Paths.Tokens, "Path to tokens.txt")
	fs.String("g", defaults.Paths.Speaker, "Path to the speaker embedding (256 little-endian float32)")
	fs.String("voices", defaults.Paths.Voices, "Path to the voice manifest (yaml or json)")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-version", defaults.Runtime.ORTVersion, "Expected ONNX Runtime version")
	fs.Uint32("ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version (0 = built-in default)")
	fs.String("language", defaults.Synth.Language, "Input language: ZH, EN or JP")
	fs.String("voice", defaults.Synth.Voice, "Voice id from the voice manifest (overrides --g)")
	fs.Float64("speed", defaults.Synth.Speed, "Speech speed; length_scale = 1/speed")
	fs.Int("sample-rate", defaults.Synth.SampleRate, "Output WAV sample rate")
	fs.Float64("noise-scale", defaults.Synth.NoiseScale, "Encoder noise_scale")
	fs.Float64("noise-scale-w", defaults.Synth.NoiseScaleW, "Encoder noise_scale_w")
	fs.Float64("sdp-ratio", defaults.Synth.SDPRatio, "Encoder sdp_ratio")
	fs.Int64("language-id", defaults.Synth.LanguageID, "Language id fed to the encoder for every symbol")
	fs.Int("sentence-len", defaults.Synth.SentenceLen, "Minimum sentence length when merging clauses (runes for CJK, words otherwise)")
	fs.Int("sentence-pause-ms", defaults.Synth.SentencePauseMS, "Silence after each sentence in ms, scaled by 1/speed")
	fs.Int("decoder-channels", defaults.Synth.DecoderChannels, "Decoder latent channels when the manifest has no static shape")
	fs.Int("decoder-frames", defaults.Synth.DecoderFrames, "Decoder window frames when the manifest has no static shape")
	fs.Int("decoder-samples", defaults.Synth.DecoderSamples, "Decoder output samples per window (0 = frames*512)")
	fs.String("listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Concurrent synthesis workers for the HTTP server")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request synthesis timeout in seconds")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("log-level", defaults.Log.Level, "Log level: debug, info, warn or error")
	fs.String("log-file", defaults.Log.File, "Also write logs to this rotating file")
	fs.Int("log-max-size-mb", defaults.Log.MaxSizeMB, "Rotate the log file after this many megabytes")
	fs.Int("log-max-backups", defaults.Log.MaxBackups, "Rotated log files to keep")
	fs.Int("log-max-age-days", defaults.Log.MaxAgeDays, "Days to keep rotated log files")
	fs.String("service-name", defaults.Telemetry.ServiceName, "Telemetry service name")
	fs.String("trace-exporter", defaults.Telemetry.TraceExporter, "Trace exporter: none, stdout or otlp")
	fs.String("otlp-endpoint", defaults.Telemetry.OTLPEndpoint, "OTLP gRPC endpoint for traces")
	fs.Bool("otlp-insecure", defaults.Telemetry.OTLPInsecure, "Disable TLS for the OTLP exporter")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("MELOTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "MELOTTS_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("melotts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds every registered config flag to its nested key. Flags that
// a command did not register are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", fk.flag, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.manifest", c.Paths.Manifest)
	v.SetDefault("paths.encoder", c.Paths.Encoder)
	v.SetDefault("paths.decoder", c.Paths.Decoder)
	v.SetDefault("paths.lexicon", c.Paths.Lexicon)
	v.SetDefault("paths.tokens", c.Paths.Tokens)
	v.SetDefault("paths.speaker", c.Paths.Speaker)
	v.SetDefault("paths.voices", c.Paths.Voices)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_version", c.Runtime.ORTVersion)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("synth.language", c.Synth.Language)
	v.SetDefault("synth.voice", c.Synth.Voice)
	v.SetDefault("synth.speed", c.Synth.Speed)
	v.SetDefault("synth.sample_rate", c.Synth.SampleRate)
	v.SetDefault("synth.noise_scale", c.Synth.NoiseScale)
	v.SetDefault("synth.noise_scale_w", c.Synth.NoiseScaleW)
	v.SetDefault("synth.sdp_ratio", c.Synth.SDPRatio)
	v.SetDefault("synth.language_id", c.Synth.LanguageID)
	v.SetDefault("synth.sentence_len", c.Synth.SentenceLen)
	v.SetDefault("synth.sentence_pause_ms", c.Synth.SentencePauseMS)
	v.SetDefault("synth.decoder_channels", c.Synth.DecoderChannels)
	v.SetDefault("synth.decoder_frames", c.Synth.DecoderFrames)
	v.SetDefault("synth.decoder_samples", c.Synth.DecoderSamples)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age_days", c.Log.MaxAgeDays)
	v.SetDefault("telemetry.service_name", c.Telemetry.ServiceName)
	v.SetDefault("telemetry.trace_exporter", c.Telemetry.TraceExporter)
	v.SetDefault("telemetry.otlp_endpoint", c.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.otlp_insecure", c.Telemetry.OTLPInsecure)
}
