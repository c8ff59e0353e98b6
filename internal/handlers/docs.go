package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Fermentation Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	sampleSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":              map[string]string{"type": "integer"},
			"fermentation_id": map[string]string{"type": "string", "format": "uuid"},
			"sample_type":     map[string]interface{}{"type": "string", "enum": []string{"sugar", "density", "temperature", "ethanol"}},
			"value":           map[string]string{"type": "number"},
			"unit":            map[string]string{"type": "string"},
			"recorded_at":     map[string]string{"type": "string", "format": "date-time"},
			"recorded_by":     map[string]string{"type": "string"},
			"created_at":      map[string]string{"type": "string", "format": "date-time"},
		},
	}

	fermentationSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":         map[string]string{"type": "string", "format": "uuid"},
			"name":       map[string]string{"type": "string"},
			"vessel":     map[string]string{"type": "string"},
			"started_at": map[string]string{"type": "string", "format": "date-time"},
			"status":     map[string]interface{}{"type": "string", "enum": []string{"ACTIVE", "SLOW", "STUCK", "COMPLETED", "LAG", "DECLINE"}},
			"created_at": map[string]string{"type": "string", "format": "date-time"},
			"updated_at": map[string]string{"type": "string", "format": "date-time"},
		},
	}

	validationResultSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"valid": map[string]string{"type": "boolean"},
			"errors": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"field":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"value":   map[string]interface{}{"nullable": true},
					},
				},
			},
			"warnings": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"field":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"value":   map[string]interface{}{"nullable": true},
					},
				},
			},
		},
	}

	paginationParams := []map[string]interface{}{
		{
			"name":        "page",
			"in":          "query",
			"description": "Page number (default: 1)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 1},
		},
		{
			"name":        "limit",
			"in":          "query",
			"description": "Records per page (default: 100)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 100},
		},
	}

	idParam := map[string]interface{}{
		"name":        "id",
		"in":          "path",
		"description": "Fermentation UUID",
		"required":    true,
		"schema":      map[string]string{"type": "string", "format": "uuid"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Fermentation Platform API",
			"description": "Wine fermentation batch tracking with sample validation and status classification",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/fermentations": map[string]interface{}{
				"post": map[string]interface{}{
					"summary": "Register a fermentation batch",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"name":       map[string]string{"type": "string"},
										"vessel":     map[string]string{"type": "string"},
										"started_at": map[string]string{"type": "string", "format": "date-time"},
									},
									"required": []string{"name", "started_at"},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{
							"description": "Fermentation created",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{"schema": fermentationSchema},
							},
						},
					},
				},
				"get": map[string]interface{}{
					"summary":    "List fermentations",
					"parameters": paginationParams,
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Paginated fermentation list"},
					},
				},
			},
			"/api/fermentations/{id}/samples": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Submit a sample",
					"description": "Validates the measurement (value, chronology, trend) and records it when acceptable",
					"parameters":  []map[string]interface{}{idParam},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"sample_type": map[string]interface{}{"type": "string", "enum": []string{"sugar", "density", "temperature", "ethanol"}},
										"value":       map[string]interface{}{"type": "number"},
										"recorded_at": map[string]string{"type": "string", "format": "date-time"},
										"recorded_by": map[string]string{"type": "string"},
									},
									"required": []string{"sample_type", "value", "recorded_at"},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{
							"description": "Sample accepted",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{"schema": sampleSchema},
							},
						},
						"422": map[string]interface{}{
							"description": "Sample rejected; body carries all validation errors",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{"schema": validationResultSchema},
							},
						},
					},
				},
				"get": map[string]interface{}{
					"summary":    "List samples for a fermentation",
					"parameters": append([]map[string]interface{}{idParam}, paginationParams...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Paginated sample list"},
					},
				},
			},
			"/api/fermentations/{id}/status": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Current status and classification history",
					"parameters": []map[string]interface{}{idParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Status with history"},
					},
				},
			},
			"/api/fermentations/{id}/status/recompute": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":    "Recompute status from sample history",
					"parameters": []map[string]interface{}{idParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Newly derived status"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "API and database are healthy"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Prometheus metrics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Prometheus metrics in text format"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
