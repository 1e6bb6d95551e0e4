// Package docs holds the OpenAPI description served under /swagger and
// registered with swag. Keep it in sync with the handler annotations in
// internal/api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/attendance": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "List attendance records of a child",
                "parameters": [
                    {"type": "string", "description": "Child ID", "name": "childId", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "start", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "end", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.AttendanceRecord"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/attendance/board": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Daily board of active children",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD, default today", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.BoardEntry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/attendance/check-in": {
            "post": {
                "description": "Opens an interval. An already open interval for the same day is returned with 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Check a child in",
                "parameters": [
                    {"description": "childId, optional date and time", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.markRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AttendanceRecord"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.AttendanceRecord"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/attendance/check-out": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Check a child out",
                "parameters": [
                    {"description": "childId, optional date and time", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.markRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AttendanceRecord"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "no open interval", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/attendance/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Presence of a child on a date",
                "parameters": [
                    {"type": "string", "description": "Child ID", "name": "childId", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD, default today", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/attendance/{id}": {
            "patch": {
                "description": "Setting checkOut to null reopens the interval.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Correct an attendance record",
                "parameters": [
                    {"type": "string", "description": "Record ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RecordPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AttendanceRecord"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/children": {
            "get": {
                "description": "Children ordered by first name. Filter with status=active|archived.",
                "produces": ["application/json"],
                "tags": ["children"],
                "summary": "List children",
                "parameters": [
                    {"type": "string", "description": "active or archived", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Child"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["children"],
                "summary": "Register a child",
                "parameters": [
                    {"description": "Child", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.createChildRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Child"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/children/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["children"],
                "summary": "Get a child",
                "parameters": [
                    {"type": "string", "description": "Child ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Child"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["children"],
                "summary": "Delete a child and its attendance history",
                "parameters": [
                    {"type": "string", "description": "Child ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Partial update. Optional fields set to null are cleared.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["children"],
                "summary": "Update a child",
                "parameters": [
                    {"type": "string", "description": "Child ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ChildPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Child"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/recap": {
            "get": {
                "produces": ["application/json"],
                "tags": ["recap"],
                "summary": "Attendance recap of a child over a period",
                "parameters": [
                    {"type": "string", "description": "Child ID", "name": "childId", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "start", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "end", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Recap"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "api.StatusResponse": {
            "type": "object",
            "properties": {
                "childId": {"type": "string"},
                "date": {"type": "string"},
                "status": {"type": "string", "enum": ["not-arrived", "present", "left"]}
            }
        },
        "api.createChildRequest": {
            "type": "object",
            "required": ["firstName"],
            "properties": {
                "birthDate": {"type": "string"},
                "color": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "api.markRequest": {
            "type": "object",
            "required": ["childId"],
            "properties": {
                "childId": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"}
            }
        },
        "model.AttendanceRecord": {
            "type": "object",
            "properties": {
                "checkIn": {"type": "string"},
                "checkOut": {"type": "string"},
                "childId": {"type": "string"},
                "date": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "model.BoardEntry": {
            "type": "object",
            "properties": {
                "child": {"$ref": "#/definitions/model.Child"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/model.AttendanceRecord"}},
                "status": {"type": "string", "enum": ["not-arrived", "present", "left"]}
            }
        },
        "model.Child": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "birthDate": {"type": "string"},
                "color": {"type": "string"},
                "createdAt": {"type": "string"},
                "firstName": {"type": "string"},
                "id": {"type": "string"},
                "lastName": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "model.ChildPatch": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "birthDate": {"type": "string"},
                "color": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "model.DayRecap": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "intervals": {"type": "array", "items": {"$ref": "#/definitions/model.Interval"}},
                "totalMinutes": {"type": "integer"}
            }
        },
        "model.Interval": {
            "type": "object",
            "properties": {
                "checkIn": {"type": "string"},
                "checkOut": {"type": "string"}
            }
        },
        "model.Recap": {
            "type": "object",
            "properties": {
                "childId": {"type": "string"},
                "days": {"type": "array", "items": {"$ref": "#/definitions/model.DayRecap"}},
                "end": {"type": "string"},
                "start": {"type": "string"},
                "totalFormatted": {"type": "string"},
                "totalMinutes": {"type": "integer"}
            }
        },
        "model.RecordPatch": {
            "type": "object",
            "properties": {
                "checkIn": {"type": "string"},
                "checkOut": {"type": "string"},
                "date": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    },
    "security": [{"ApiKeyAuth": []}]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "tat API",
	Description:      "Daily check-in/check-out tracking of children with period recaps.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
