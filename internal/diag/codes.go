package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Шаблонные (jinja)
	JinInfo                 Code = 1000
	JinUnmatchedEndif       Code = 1001
	JinUnmatchedEndmacro    Code = 1002
	JinUnmatchedEndfor      Code = 1003
	JinUnmatchedEndset      Code = 1004
	JinUnmatchedEndfilter   Code = 1005
	JinUnmatchedEndblock    Code = 1006
	JinUnmatchedEndcall     Code = 1007
	JinUnmatchedEndraw      Code = 1008
	JinUnmatchedEndsnapshot Code = 1009
	JinUnmatchedEnddocs     Code = 1010
	JinDanglingOpener       Code = 1020
	JinUnterminatedComment  Code = 1021

	// config()-вызовы
	CfgInfo           Code = 2000
	CfgCustomKey      Code = 2001
	CfgMetaMerge      Code = 2002
	CfgGetChain       Code = 2003
	CfgUnparsableArgs Code = 2004

	// YAML property files
	YmlInfo          Code = 3000
	YmlTabOnlyLine   Code = 3001
	YmlLeadingTab    Code = 3002
	YmlVersionValue  Code = 3003
	YmlDuplicateKey  Code = 3004
	YmlMisplacedKey  Code = 3005
	YmlOwnerProperty Code = 3006
	YmlSequenceDent  Code = 3007
	YmlUnknownKey    Code = 3008

	// Project manifest (dbt_project.yml)
	PrjInfo        Code = 4000
	PrjLogPath     Code = 4001
	PrjTargetPath  Code = 4002
	PrjDataPaths   Code = 4003
	PrjSourcePaths Code = 4004
	PrjPlusPrefix  Code = 4005

	// Dependency manifest (packages.yml)
	PkgInfo           Code = 5000
	PkgVersionBump    Code = 5001
	PkgUnknownVersion Code = 5002

	// IO / драйвер
	IoInfo          Code = 6000
	IoReadFailed    Code = 6001
	IoWriteFailed   Code = 6002
	IoParseFailed   Code = 6003
	IoPassLimit     Code = 6004
	IoCacheCorrupt  Code = 6005
	IoNotUTF8       Code = 6006
	IoEditConflict  Code = 6007
	IoSkippedBinary Code = 6008
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown finding",

	JinInfo:                 "template info",
	JinUnmatchedEndif:       "unmatched {% endif %}",
	JinUnmatchedEndmacro:    "unmatched {% endmacro %}",
	JinUnmatchedEndfor:      "unmatched {% endfor %}",
	JinUnmatchedEndset:      "unmatched {% endset %}",
	JinUnmatchedEndfilter:   "unmatched {% endfilter %}",
	JinUnmatchedEndblock:    "unmatched {% endblock %}",
	JinUnmatchedEndcall:     "unmatched {% endcall %}",
	JinUnmatchedEndraw:      "unmatched {% endraw %}",
	JinUnmatchedEndsnapshot: "unmatched {% endsnapshot %}",
	JinUnmatchedEnddocs:     "unmatched {% enddocs %}",
	JinDanglingOpener:       "block opener without matching ending",
	JinUnterminatedComment:  "comment open without a closing token",

	CfgInfo:           "config call info",
	CfgCustomKey:      "custom config key outside meta",
	CfgMetaMerge:      "custom keys merged into existing meta",
	CfgGetChain:       "config.get of a custom key",
	CfgUnparsableArgs: "config call arguments could not be parsed",

	YmlInfo:          "yaml info",
	YmlTabOnlyLine:   "line consisting only of tabs",
	YmlLeadingTab:    "tab used for indentation",
	YmlVersionValue:  "version must be 2",
	YmlDuplicateKey:  "duplicate mapping key",
	YmlMisplacedKey:  "key must move under config",
	YmlOwnerProperty: "custom owner property",
	YmlSequenceDent:  "sequence item indentation",
	YmlUnknownKey:    "unknown property key",

	PrjInfo:        "project manifest info",
	PrjLogPath:     "log-path is no longer supported",
	PrjTargetPath:  "target-path is no longer supported",
	PrjDataPaths:   "data-paths renamed to seed-paths",
	PrjSourcePaths: "source-paths renamed to model-paths",
	PrjPlusPrefix:  "resource config needs + prefix",

	PkgInfo:           "dependency manifest info",
	PkgVersionBump:    "package version below compatible range",
	PkgUnknownVersion: "package version not recognised",

	IoInfo:          "io info",
	IoReadFailed:    "file could not be read",
	IoWriteFailed:   "file could not be written",
	IoParseFailed:   "file could not be parsed",
	IoPassLimit:     "rewrite passes did not converge",
	IoCacheCorrupt:  "compatibility cache entry dropped",
	IoNotUTF8:       "file is not valid utf-8",
	IoEditConflict:  "conflicting rewrites for the same span",
	IoSkippedBinary: "binary file skipped",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("JIN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("YML%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PKG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Deprecation возвращает класс депрекации для машинного вывода.
func (c Code) Deprecation() string {
	switch c {
	case YmlDuplicateKey:
		return "DuplicateYAMLKeysDeprecation"
	case YmlOwnerProperty:
		return "CustomKeyInObjectDeprecation"
	case YmlTabOnlyLine, YmlLeadingTab, YmlVersionValue, YmlSequenceDent, PrjPlusPrefix:
		return "GenericJSONSchemaValidationDeprecation"
	case PrjLogPath:
		return "ConfigLogPathDeprecation"
	case PrjTargetPath:
		return "ConfigTargetPathDeprecation"
	case PrjDataPaths:
		return "ConfigDataPathDeprecation"
	case PrjSourcePaths:
		return "ConfigSourcePathDeprecation"
	}
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return "UnexpectedJinjaBlockDeprecation"
	case ic >= 2000 && ic < 4000:
		return "CustomKeyInConfigDeprecation"
	case ic >= 5000 && ic < 6000:
		return "PackageVersionDeprecation"
	}
	return "GenericDeprecation"
}

// Rule возвращает имя правила для машинного вывода (группа отчёта).
func (c Code) Rule() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return "unmatched-endings"
	case ic >= 2000 && ic < 3000:
		return "config-meta"
	case ic >= 3000 && ic < 4000:
		return "yaml-properties"
	case ic >= 4000 && ic < 5000:
		return "project-config"
	case ic >= 5000 && ic < 6000:
		return "package-versions"
	case ic >= 6000 && ic < 7000:
		return "io"
	}
	return "unknown"
}
