// Package docs Route Synthesis Service API.
//
// Сервис синтеза закольцованных маршрутов для ходьбы, бега и велосипеда.
// Берёт уличную инфраструктуру области, находит плотные кластеры, строит
// алмазные петли через внешнего провайдера маршрутизации и сохраняет
// готовые курируемые маршруты.
//
// Основные возможности:
// - Синхронный и асинхронный синтез маршрутов области
// - Гибридные маршруты с остановками у спортивных объектов
// - Чтение готовых маршрутов с фильтром по активности
// - Экспорт маршрута в GPX
// - Статистика последнего синтеза области
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//	- application/gpx+xml
//
//	Security:
//	- api_key:
//
//	SecurityDefinitions:
//	api_key:
//	     type: apiKey
//	     name: Authorization
//	     in: header
//
// swagger:meta
package docs
