// Package gis разбирает слабо типизированные GIS-атрибуты.
// Муниципальные импорты пишут одно и то же понятие под разными ключами,
// поэтому каждое понятие резолвится через приоритетный список ключей:
// побеждает первое присутствующее непустое значение.
package gis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseTags разбирает jsonb-колонку тегов в map. Битый JSON - пустая map.
func ParseTags(raw []byte) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}

	var tmp map[string]string
	if err := json.Unmarshal(raw, &tmp); err != nil {
		return map[string]string{}
	}

	return tmp
}

// PickString возвращает первое присутствующее непустое значение по списку ключей
func PickString(tags map[string]string, keys ...string) *string {
	for _, key := range keys {
		if val, ok := tags[key]; ok && strings.TrimSpace(val) != "" {
			value := strings.TrimSpace(val)
			return &value
		}
	}
	return nil
}

// PickInt - то же для целочисленных атрибутов (число ступеней и т.п.)
func PickInt(tags map[string]string, keys ...string) *int {
	for _, key := range keys {
		if val, ok := tags[key]; ok && strings.TrimSpace(val) != "" {
			if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

// PickBool - то же для флагов в OSM-стиле (yes/no/1/0)
func PickBool(tags map[string]string, keys ...string) *bool {
	for _, key := range keys {
		if val, ok := tags[key]; ok {
			if b, okParsed := parseYesNo(val); okParsed {
				return &b
			}
		}
	}
	return nil
}

func parseYesNo(val string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "true", "1", "y":
		return true, true
	case "no", "false", "0", "n":
		return false, true
	default:
		return false, false
	}
}
