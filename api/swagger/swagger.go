package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Allocation API",
        "description": "Room, time and faculty allocation engine for campus timetabling",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Course catalog management"},
        {"name": "Rooms", "description": "Room inventory management"},
        {"name": "Faculty", "description": "Faculty roster management"},
        {"name": "TimeSlots", "description": "Teaching grid definition"},
        {"name": "Preferences", "description": "Faculty preference declarations and scoring"},
        {"name": "Timetables", "description": "Timetable generation, versions and audits"},
        {"name": "Metrics", "description": "Observability"}
    ],
    "paths": {
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "parameters": [
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Get room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rooms"],
                "summary": "Update room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty members",
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Register faculty member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFacultyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faculty/{id}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Get faculty member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Faculty"],
                "summary": "Update faculty member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFacultyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Faculty"],
                "summary": "Deactivate faculty member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/faculty/{id}/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get preferences",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Replace preferences",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertPreferencesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faculty/{id}/preferences/conflicts": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Audit preferences for internal conflicts",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faculty/{id}/preferences/completeness": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Preference declaration completeness",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences/score": {
            "post": {
                "tags": ["Preferences"],
                "summary": "Score a candidate assignment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-slots": {
            "get": {
                "tags": ["TimeSlots"],
                "summary": "List the teaching grid",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["TimeSlots"],
                "summary": "Add a grid cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimeSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-slots/{id}": {
            "delete": {
                "tags": ["TimeSlots"],
                "summary": "Remove a grid cell",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List timetable versions",
                "parameters": [
                    {"name": "department", "in": "query", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a timetable proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/save": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Save a proposal as a new timetable version",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Proposal expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/proposals/{id}/metrics": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Run metrics for a pending proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/slots": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Placements of a stored timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/validate": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Run the consistency audit",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a timetable as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/timetables/{id}/publish": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Publish a draft timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a draft timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Aggregated metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SystemMetricsSnapshot"}}
                }
            }
        }
    },
    "definitions": {
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "department": {"type": "string"},
                "semester": {"type": "integer"},
                "credits": {"type": "integer"},
                "lecture_hours": {"type": "integer"},
                "lab_hours": {"type": "integer"}
            },
            "required": ["code", "name", "department", "semester"]
        },
        "UpdateCourseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "semester": {"type": "integer"},
                "credits": {"type": "integer"},
                "lecture_hours": {"type": "integer"},
                "lab_hours": {"type": "integer"}
            },
            "required": ["name", "semester"]
        },
        "CreateRoomRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "building": {"type": "string"},
                "capacity": {"type": "integer"},
                "type": {"type": "string", "enum": ["lecture", "lab", "tutorial"]},
                "facilities": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["code", "name", "capacity", "type"]
        },
        "UpdateRoomRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "building": {"type": "string"},
                "capacity": {"type": "integer"},
                "type": {"type": "string", "enum": ["lecture", "lab", "tutorial"]},
                "facilities": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateFacultyRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "expertise": {"type": "array", "items": {"type": "string"}},
                "max_hours_per_week": {"type": "integer"}
            },
            "required": ["code", "full_name", "email", "department"]
        },
        "UpdateFacultyRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "expertise": {"type": "array", "items": {"type": "string"}},
                "max_hours_per_week": {"type": "integer"},
                "active": {"type": "boolean"}
            }
        },
        "CreateTimeSlotRequest": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            },
            "required": ["day", "start_time", "end_time"]
        },
        "UpsertPreferencesRequest": {
            "type": "object",
            "properties": {
                "room_preferences": {"type": "array", "items": {"type": "object"}},
                "time_preferences": {"type": "array", "items": {"type": "object"}},
                "subject_preferences": {"type": "array", "items": {"type": "object"}},
                "constraints": {"type": "array", "items": {"type": "object"}}
            }
        },
        "ScoreAssignmentRequest": {
            "type": "object",
            "properties": {
                "facultyId": {"type": "string"},
                "courseId": {"type": "string"},
                "roomId": {"type": "string"},
                "timeSlotId": {"type": "string"}
            },
            "required": ["facultyId", "courseId", "roomId", "timeSlotId"]
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "department": {"type": "string"},
                "term": {"type": "string"},
                "shuffleSeed": {"type": "integer"},
                "method": {"type": "string", "enum": ["greedy", "balanced"]}
            },
            "required": ["department", "term"]
        },
        "SaveTimetableRequest": {
            "type": "object",
            "properties": {
                "proposalId": {"type": "string"},
                "publish": {"type": "boolean"}
            },
            "required": ["proposalId"]
        },
        "SystemMetricsSnapshot": {
            "type": "object",
            "properties": {
                "cache_hit_ratio": {"type": "number"},
                "cache_hits": {"type": "integer"},
                "cache_misses": {"type": "integer"},
                "requests_total": {"type": "integer"},
                "avg_request_duration_ms": {"type": "number"},
                "db_query_count": {"type": "integer"},
                "avg_db_query_duration_ms": {"type": "number"},
                "generations_total": {"type": "integer"},
                "last_balance_score": {"type": "number"},
                "goroutines": {"type": "integer"},
                "generated_at": {"type": "string"}
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
