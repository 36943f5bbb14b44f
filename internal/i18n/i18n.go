// Package i18n provides the English and Russian message catalog for
// user-facing status and log messages.
package i18n

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultLanguage is used when a requested language or key is missing.
const DefaultLanguage = "en"

var catalog = map[string]map[string]string{
	"en": {
		"app_title": "Dockling",

		"msg_settings_saved":         "Settings saved successfully",
		"msg_settings_error":         "Failed to save settings",
		"msg_validation_error":       "Validation error",
		"msg_no_files":               "No files to process",
		"msg_conversion_started":     "Conversion started",
		"msg_conversion_stopped":     "Conversion stopped",
		"msg_conversion_completed":   "Conversion completed",
		"msg_conversion_in_progress": "A conversion is already running",
		"msg_input_dir_not_exist":    "Input folder does not exist: {path}",
		"msg_no_files_in_dir":        "No supported files found in folder: {path}",
		"msg_starting_conversion":    "Starting conversion of {count} files...",
		"msg_stop_requested":         "Stop requested, finishing current file...",
		"msg_api_key_required":       "An API key is required for AI image descriptions",

		"msg_conversion_summary": "Conversion finished. Processed {total} files: {success} succeeded, {partial} partial, {failed} failed, {skipped} skipped",

		"stats_success": "Succeeded",
		"stats_partial": "Partial",
		"stats_failed":  "Failed",
		"stats_skipped": "Skipped",
		"stats_total":   "Total",

		"lang_en": "English",
		"lang_ru": "Russian",
	},
	"ru": {
		"app_title": "Dockling",

		"msg_settings_saved":         "Настройки сохранены успешно",
		"msg_settings_error":         "Ошибка сохранения настроек",
		"msg_validation_error":       "Ошибка валидации",
		"msg_no_files":               "Нет файлов для обработки",
		"msg_conversion_started":     "Конвертация запущена",
		"msg_conversion_stopped":     "Конвертация остановлена",
		"msg_conversion_completed":   "Конвертация завершена",
		"msg_conversion_in_progress": "Конвертация уже выполняется",
		"msg_input_dir_not_exist":    "Входная папка не существует: {path}",
		"msg_no_files_in_dir":        "В папке не найдено поддерживаемых файлов: {path}",
		"msg_starting_conversion":    "Запуск конвертации {count} файлов...",
		"msg_stop_requested":         "Запрос остановки, завершение текущего файла...",
		"msg_api_key_required":       "Для AI описаний требуется API ключ",

		"msg_conversion_summary": "Конвертация завершена. Обработано {total} файлов: {success} успешно, {partial} частично, {failed} с ошибками, {skipped} пропущено",

		"stats_success": "Успешно",
		"stats_partial": "Частично",
		"stats_failed":  "Ошибок",
		"stats_skipped": "Пропущено",
		"stats_total":   "Всего",

		"lang_en": "English",
		"lang_ru": "Русский",
	},
}

// T returns the message for key in the requested language, falling back
// to English, then to the key itself.
func T(lang, key string) string {
	if msgs, ok := catalog[lang]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// Tf resolves key like T and substitutes {name} placeholders from args.
func Tf(lang, key string, args map[string]any) string {
	msg := T(lang, key)
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(value))
	}
	return msg
}

// Supported reports whether a language code has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// Languages returns the available language codes in sorted order.
func Languages() []string {
	codes := make([]string, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
