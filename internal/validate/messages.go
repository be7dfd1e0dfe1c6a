// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package validate

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Each key is a format string in the catalogue; the arguments
// are documented next to the key.
const (
	msgSectionMissing      = "section.missing"       // label
	msgSectionEmpty        = "section.empty"         // label
	msgTooFewWords         = "words.too_few"         // label, field, count, min
	msgTooManyWords        = "words.too_many"        // label, field, count, max
	msgTitleRequired       = "meta.title.required"   //
	msgTitleTooLong        = "meta.title.long"       // length, max
	msgDescRequired        = "meta.desc.required"    //
	msgDescTooLong         = "meta.desc.long"        // length, max
	msgKeywordsMissing     = "meta.keywords.missing" //
	msgReportAllPassed     = "report.passed"         //
	msgReportSummary       = "report.summary"        // errors, warnings
	msgReportErrorsTitle   = "report.errors"         //
	msgReportWarningsTitle = "report.warnings"       //
)

var messages = []struct {
	key, en, fr string
}{
	{msgSectionMissing,
		"%s: required section missing",
		"%s : section obligatoire manquante"},
	{msgSectionEmpty,
		"%s: section is required but empty",
		"%s : section obligatoire vide"},
	{msgTooFewWords,
		"%s / %s: %d words, at least %d required",
		"%s / %s : %d mots, au moins %d requis"},
	{msgTooManyWords,
		"%s / %s: %d words, %d recommended at most",
		"%s / %s : %d mots, %d conseillés au maximum"},
	{msgTitleRequired,
		"Title is required",
		"Le titre est obligatoire"},
	{msgTitleTooLong,
		"Title is %d characters, %d recommended at most",
		"Le titre fait %d caractères, %d conseillés au maximum"},
	{msgDescRequired,
		"Description is required",
		"La description est obligatoire"},
	{msgDescTooLong,
		"Description is %d characters, %d recommended at most",
		"La description fait %d caractères, %d conseillés au maximum"},
	{msgKeywordsMissing,
		"No keywords set, keywords are recommended",
		"Aucun mot-clé défini, les mots-clés sont recommandés"},
	{msgReportAllPassed,
		"All validation checks passed.",
		"Toutes les validations sont réussies."},
	{msgReportSummary,
		"Validation found %d error(s) and %d warning(s).",
		"La validation a trouvé %d erreur(s) et %d avertissement(s)."},
	{msgReportErrorsTitle,
		"Errors:",
		"Erreurs :"},
	{msgReportWarningsTitle,
		"Warnings:",
		"Avertissements :"},
}

var (
	supported = []language.Tag{language.English, language.French}
	matcher   = language.NewMatcher(supported)
	cat       = buildCatalog()
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, m := range messages {
		if err := b.SetString(language.English, m.key, m.en); err != nil {
			panic(fmt.Sprintf("validate: catalogue %s: %v", m.key, err))
		}
		if err := b.SetString(language.French, m.key, m.fr); err != nil {
			panic(fmt.Sprintf("validate: catalogue %s: %v", m.key, err))
		}
	}
	return b
}

// Language picks the closest supported report language for an
// Accept-Language style string such as "fr-CA" or "fr;q=0.9, en".
// Unknown or empty input yields English.
func Language(s string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

func printer(lang language.Tag) *message.Printer {
	return message.NewPrinter(lang, message.Catalog(cat))
}
