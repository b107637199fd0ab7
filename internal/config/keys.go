package config

// Recognised keys and their defaults (spec §4.8).
const (
	KeyCoreEditor           = "onyo.core.editor"
	KeyHistoryInteractive   = "onyo.history.interactive"
	KeyHistoryNonInteractive = "onyo.history.non-interactive"
	KeyNewTemplate          = "onyo.new.template"
	KeyAssetsNameFormat     = "onyo.assets.name-format"
	KeyRepoVersion          = "onyo.repo.version"
)

const (
	DefaultHistoryInteractive    = "tig --follow"
	DefaultHistoryNonInteractive = "git --no-pager log --follow"
	DefaultNewTemplate           = "empty"
	DefaultAssetsNameFormat      = "{type}_{make}_{model}.{serial}"
	DefaultFallbackEditor        = "nano"
	CurrentRepoVersion           = "1"
)

// recognisedKeys lists every key Get/Set accept, mirroring the teacher's
// config_commands.go allow-list pattern (reject unknown keys rather than
// silently writing garbage into .onyo/config).
var recognisedKeys = map[string]bool{
	KeyCoreEditor:            true,
	KeyHistoryInteractive:    true,
	KeyHistoryNonInteractive: true,
	KeyNewTemplate:           true,
	KeyAssetsNameFormat:      true,
	KeyRepoVersion:           true,
}

// IsRecognisedKey reports whether key is one of onyo's known configuration
// keys.
func IsRecognisedKey(key string) bool { return recognisedKeys[key] }
