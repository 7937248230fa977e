package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Ride Analytics API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Ride Analytics API",
			"description": "Cycling activity analytics platform: cleaned activity records, monthly aggregates and fixed-frequency series with baseline forecasts",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/activities": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List activities",
					"description": "Retrieve cleaned activity records with date filtering and pagination",
					"parameters": []map[string]interface{}{
						{
							"name":     "start_date",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":     "end_date",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":     "page",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
						{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Paginated activity records",
						},
					},
				},
			},
			"/api/activities/monthly": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List monthly aggregates",
					"description": "Retrieve gap-filled monthly aggregates, optionally filtered by year",
					"parameters": []map[string]interface{}{
						{
							"name":     "year",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
						{
							"name":     "page",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
						{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Paginated monthly aggregates",
						},
					},
				},
			},
			"/api/activities/series": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get a monthly series",
					"description": "Build the fixed-frequency (12 periods/year) series for one aggregate metric",
					"parameters": []map[string]interface{}{
						{
							"name":        "metric",
							"in":          "query",
							"required":    false,
							"description": "One of total_duration_min, endurance_min, total_distance_km, mean_avg_speed_kmh, max_speed_kmh, mean_avg_power_w",
							"schema":      map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Series with start period, frequency and values",
						},
						"400": map[string]interface{}{
							"description": "Unknown metric or incomplete aggregate table",
						},
					},
				},
			},
			"/api/activities/series/forecast": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get a baseline forecast",
					"description": "Extend a metric series by h periods using a baseline method",
					"parameters": []map[string]interface{}{
						{
							"name":     "metric",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":        "method",
							"in":          "query",
							"required":    false,
							"description": "One of naive, seasonal_naive, drift",
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":     "h",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Forecast series starting after the last observed period",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Service is healthy",
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

// SwaggerUI serves the Swagger UI page for the API documentation
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	const page = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Ride Analytics API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/api/docs/openapi.json",
                dom_id: '#swagger-ui',
                deepLinking: true
            });
        };
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}
