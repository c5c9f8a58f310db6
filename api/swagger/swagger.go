package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetabler API",
        "description": "Ranks every clash-free weekly class timetable for an enrolment.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Activities", "description": "Offered classes per enrolment"},
        {"name": "Rankings", "description": "Enumerate, score and browse timetables"}
    ],
    "paths": {
        "/enrolments/{id}/activities": {
            "get": {
                "tags": ["Activities"],
                "summary": "List stored activities",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Activities"],
                "summary": "Replace the activities of an enrolment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceActivitiesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed time or payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rankings": {
            "post": {
                "tags": ["Rankings"],
                "summary": "Rank every clash-free timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RankRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed time or payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Combination space too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rankings/{id}": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Get ranking status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rankings/{id}/timetables": {
            "get": {
                "tags": ["Rankings"],
                "summary": "List ranked timetables, best first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Still ranking", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rankings/{id}/timetables/{index}": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Get the timetable ranked at index",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rankings/{id}/timetables/{index}/export": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Download a ranked timetable",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/rankings/{id}/palette": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Get display colours",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rankings/{id}/grid": {
            "post": {
                "tags": ["Rankings"],
                "summary": "Build the grid for an arbitrary combination",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RebuildRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ActivityRequest": {
            "type": "object",
            "required": ["subjectCode", "groupCode", "activityCode", "dayOfWeek", "startTime", "duration"],
            "properties": {
                "subjectCode": {"type": "string", "example": "FIT1045_CL_S1_DAY"},
                "groupCode": {"type": "string", "example": "Lecture"},
                "activityCode": {"type": "string", "example": "01-P1"},
                "dayOfWeek": {"type": "string", "example": "Mon"},
                "startTime": {"type": "string", "example": "09:00"},
                "duration": {"type": "integer", "example": 120},
                "location": {"type": "string"}
            }
        },
        "ReplaceActivitiesRequest": {
            "type": "object",
            "properties": {
                "activities": {"type": "array", "items": {"$ref": "#/definitions/ActivityRequest"}}
            }
        },
        "GroupRef": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "group": {"type": "string"}
            }
        },
        "RankRequest": {
            "type": "object",
            "properties": {
                "enrolmentId": {"type": "string"},
                "activities": {"type": "array", "items": {"$ref": "#/definitions/ActivityRequest"}},
                "enrolledGroups": {"type": "array", "items": {"$ref": "#/definitions/GroupRef"}},
                "earlyBefore": {"type": "string", "example": "9:30am"},
                "lateFrom": {"type": "string", "example": "6pm"},
                "targetStart": {"type": "string", "example": "10am"},
                "focusDays": {"type": "array", "items": {"type": "string"}},
                "criteria": {"type": "array", "items": {"type": "string"}, "example": ["-days_spent", "+breaks_squared"]}
            }
        },
        "RebuildRequest": {
            "type": "object",
            "properties": {
                "combination": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
