package testbackend

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/gema-admin/internal/models"
)

func (s *Server) routes(api fiber.Router) {
	s.collectionRoutes(api, "classes")
	api.Post("/classes/:id/materials", s.attach("classes", "materials", "materials"))
	api.Delete("/classes/:id/materials/:fileId", s.detach("classes", "materials"))

	api.Patch("/exams/:id/publish", s.publishExam)
	api.Get("/exams/:id/marks/:classId", s.getMarks)
	api.Put("/exams/:id/marks/:classId", s.saveMarks)
	s.collectionRoutes(api, "exams")

	s.collectionRoutes(api, "homework")
	api.Post("/homework/:id/attachments", s.attach("homework", "file", "attachments"))
	api.Delete("/homework/:id/attachments/:fileId", s.detach("homework", "attachments"))

	api.Post("/students/:id/photo", s.attach("students", "photo", "photo"))
	api.Post("/students/:id/documents", s.attach("students", "documents", "documents"))
	api.Get("/students/:id/login", s.getLogin)
	api.Put("/students/:id/login", s.putLogin)
	s.collectionRoutes(api, "students")

	api.Get("/subjects/dropdown", s.subjectDropdown)
	api.Get("/subjects/class/:classId", s.classSubjects)
	api.Delete("/subjects/class/:classId", s.removeClassSubjects)
	api.Post("/subjects/assign", s.assignSubjects)

	api.Get("/teachers/dropdown", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return sendSuccess(c, "", append([]models.DropdownOption{}, s.teachers...))
	})

	api.Get("/uploads", s.listUploads)
	api.Post("/uploads", s.createUpload)
	api.Delete("/uploads/:id", s.deleteUpload)

	api.Get("/billing/invoices", s.listInvoices)
	api.Get("/billing", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return sendSuccess(c, "", s.billing)
	})
	api.Put("/billing", s.updateBilling)

	api.Put("/account-settings/password", s.changePassword)
	api.Get("/account-settings", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return sendSuccess(c, "", s.account)
	})
	api.Put("/account-settings", s.updateAccount)
}

func (s *Server) collectionRoutes(api fiber.Router, name string) {
	base := "/" + name
	api.Get(base+"/stats", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return sendSuccess(c, "", s.tables[name].stats())
	})
	api.Get(base+"/dropdown", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return sendSuccess(c, "", s.dropdown(name))
	})
	api.Post(base+"/bulk-delete", func(c *fiber.Ctx) error {
		var payload models.BulkDeleteRequest
		if err := c.BodyParser(&payload); err != nil || len(payload.IDs) == 0 {
			return sendError(c, fiber.StatusBadRequest, "ids are required", map[string]string{"ids": "ids are required"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		deleted := 0
		for _, id := range payload.IDs {
			if s.tables[name].remove(id) {
				deleted++
			}
		}
		return sendSuccess(c, "Records deleted", models.BulkDeleteResult{DeletedCount: deleted})
	})
	api.Get(base, func(c *fiber.Ctx) error {
		filters := c.Queries()
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 10)
		delete(filters, "page")
		delete(filters, "limit")

		s.mu.Lock()
		defer s.mu.Unlock()
		matched := s.tables[name].query(filters)
		return sendList(c, paginate(matched, page, limit), len(matched), page, limit)
	})
	api.Post(base, func(c *fiber.Ctx) error {
		rec := record{}
		if err := c.BodyParser(&rec); err != nil {
			return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
		}
		delete(rec, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[name]
		if t.clash(rec, "") {
			return s.conflict(c, t)
		}
		return sendSuccessWithStatus(c, fiber.StatusCreated, t.label+" created", t.insert(rec))
	})
	api.Get(base+"/:id", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[name]
		_, rec := t.find(c.Params("id"))
		if rec == nil {
			return sendError(c, fiber.StatusNotFound, t.label+" not found", nil)
		}
		return sendSuccess(c, "", rec)
	})
	api.Put(base+"/:id", func(c *fiber.Ctx) error {
		patch := record{}
		if err := c.BodyParser(&patch); err != nil {
			return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[name]
		id := c.Params("id")
		_, rec := t.find(id)
		if rec == nil {
			return sendError(c, fiber.StatusNotFound, t.label+" not found", nil)
		}
		if t.clash(patch, id) {
			return s.conflict(c, t)
		}
		for key, value := range patch {
			if key != "id" {
				rec[key] = value
			}
		}
		return sendSuccess(c, t.label+" updated", rec)
	})
	api.Delete(base+"/:id", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[name]
		if !t.remove(c.Params("id")) {
			return sendError(c, fiber.StatusNotFound, t.label+" not found", nil)
		}
		return sendSuccess(c, t.label+" deleted", nil)
	})
}

func (s *Server) conflict(c *fiber.Ctx, t *table) error {
	message := t.label + " with this " + humanize(t.unique) + " already exists"
	var fields map[string]string
	if s.structuredConflicts {
		fields = map[string]string{t.unique: message}
	}
	return sendError(c, fiber.StatusConflict, message, fields)
}

// humanize turns registrationNo into "registration number".
func humanize(field string) string {
	var b strings.Builder
	for idx, r := range field {
		if r >= 'A' && r <= 'Z' {
			if idx > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return strings.Replace(b.String(), " no", " number", 1)
}

func (s *Server) dropdown(name string) []models.DropdownOption {
	options := []models.DropdownOption{}
	labelKey := map[string]string{"classes": "className", "exams": "examName", "homework": "title", "students": "firstName"}[name]
	for _, rec := range s.tables[name].records {
		options = append(options, models.DropdownOption{ID: rec.id(), Name: rec.str(labelKey), Section: rec.str("section")})
	}
	return options
}

func (s *Server) attach(resource, field, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, "Invalid multipart payload", nil)
		}
		files := form.File[field]
		if len(files) == 0 {
			return sendError(c, fiber.StatusBadRequest, "No file uploaded", map[string]string{field: "File is required"})
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[resource]
		_, rec := t.find(c.Params("id"))
		if rec == nil {
			return sendError(c, fiber.StatusNotFound, t.label+" not found", nil)
		}

		existing, _ := rec[key].([]interface{})
		route := strings.TrimPrefix(c.Path(), "/api")
		for _, header := range files {
			s.received = append(s.received, ReceivedFile{
				Route:       route,
				Field:       field,
				FileName:    header.Filename,
				ContentType: header.Header.Get(fiber.HeaderContentType),
				Size:        header.Size,
			})
			id := uuid.NewString()
			url := "https://files.gema.test/" + id + "/" + header.Filename
			if key == "photo" {
				rec["photo"] = url
				continue
			}
			existing = append(existing, map[string]interface{}{
				"id":       id,
				"fileName": header.Filename,
				"url":      url,
				"mimeType": header.Header.Get(fiber.HeaderContentType),
				"size":     header.Size,
			})
		}
		if key != "photo" {
			rec[key] = existing
		}
		return sendSuccess(c, "File uploaded", rec)
	}
}

func (s *Server) detach(resource, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[resource]
		_, rec := t.find(c.Params("id"))
		if rec == nil {
			return sendError(c, fiber.StatusNotFound, t.label+" not found", nil)
		}
		existing, _ := rec[key].([]interface{})
		kept := make([]interface{}, 0, len(existing))
		found := false
		for _, item := range existing {
			if entry, ok := item.(map[string]interface{}); ok && entry["id"] == c.Params("fileId") {
				found = true
				continue
			}
			kept = append(kept, item)
		}
		if !found {
			return sendError(c, fiber.StatusNotFound, "File not found", nil)
		}
		rec[key] = kept
		return sendSuccess(c, "File deleted", nil)
	}
}

func (s *Server) publishExam(c *fiber.Ctx) error {
	var payload models.PublishRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rec := s.tables["exams"].find(c.Params("id"))
	if rec == nil {
		return sendError(c, fiber.StatusNotFound, "Exam not found", nil)
	}
	rec["isPublished"] = payload.IsPublished
	return sendSuccess(c, "Exam updated", rec)
}

func marksKey(examID, classID string) string {
	return examID + "/" + classID
}

func (s *Server) getMarks(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sheet, ok := s.marks[marksKey(c.Params("id"), c.Params("classId"))]
	if !ok {
		return sendError(c, fiber.StatusNotFound, "Marks sheet not found", nil)
	}
	return sendSuccess(c, "", sheet)
}

func (s *Server) saveMarks(c *fiber.Ctx) error {
	var payload models.SaveMarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := marksKey(c.Params("id"), c.Params("classId"))
	sheet, ok := s.marks[key]
	if !ok {
		sheet = models.ExamMarksRecord{ExamID: c.Params("id"), ClassID: c.Params("classId")}
	}
	sheet.Entries = payload.Entries
	s.marks[key] = sheet
	return sendSuccess(c, "Marks saved", sheet)
}

func (s *Server) getLogin(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Params("id")
	if _, rec := s.tables["students"].find(id); rec == nil {
		return sendError(c, fiber.StatusNotFound, "Student not found", nil)
	}
	login := s.logins[id]
	login.Password = ""
	return sendSuccess(c, "", login)
}

func (s *Server) putLogin(c *fiber.Ctx) error {
	var payload models.StudentLogin
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Params("id")
	if _, rec := s.tables["students"].find(id); rec == nil {
		return sendError(c, fiber.StatusNotFound, "Student not found", nil)
	}
	for other, login := range s.logins {
		if other != id && strings.EqualFold(login.Username, payload.Username) {
			return sendError(c, fiber.StatusConflict, "Username already taken", nil)
		}
	}
	s.logins[id] = payload
	return sendSuccess(c, "Login updated", models.StudentLogin{Username: payload.Username})
}

func (s *Server) classSubjects(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sendSuccess(c, "", append([]models.AssignedSubject{}, s.subjects[c.Params("classId")]...))
}

func (s *Server) removeClassSubjects(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subjects, c.Params("classId"))
	return sendSuccess(c, "Subjects removed", nil)
}

func (s *Server) assignSubjects(c *fiber.Ctx) error {
	var payload models.SubjectAssignment
	if err := c.BodyParser(&payload); err != nil || payload.ClassID == "" {
		return sendError(c, fiber.StatusBadRequest, "classId is required", map[string]string{"classId": "classId is required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range payload.Subjects {
		if payload.Subjects[idx].ID == "" {
			payload.Subjects[idx].ID = uuid.NewString()
		}
	}
	s.subjects[payload.ClassID] = payload.Subjects
	return sendSuccess(c, "Subjects assigned", payload)
}

func (s *Server) subjectDropdown(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := map[string]struct{}{}
	for _, subjects := range s.subjects {
		for _, subject := range subjects {
			names[subject.SubjectName] = struct{}{}
		}
	}
	options := []models.DropdownOption{}
	for _, name := range sortedKeys(names) {
		options = append(options, models.DropdownOption{ID: name, Name: name})
	}
	return sendSuccess(c, "", options)
}

func (s *Server) listUploads(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sendSuccess(c, "", append([]models.Upload{}, s.uploads...))
}

func (s *Server) createUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("logo")
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, "No file uploaded", map[string]string{"logo": "File is required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	contentType := header.Header.Get(fiber.HeaderContentType)
	s.received = append(s.received, ReceivedFile{Route: "/uploads", Field: "logo", FileName: header.Filename, ContentType: contentType, Size: header.Size})
	id := uuid.NewString()
	upload := models.Upload{
		ID:       id,
		FileName: header.Filename,
		URL:      "https://files.gema.test/" + id + "/" + header.Filename,
		MimeType: contentType,
		Size:     header.Size,
	}
	s.uploads = append(s.uploads, upload)
	s.account.LogoURL = upload.URL
	return sendSuccessWithStatus(c, fiber.StatusCreated, "File uploaded", upload)
}

func (s *Server) deleteUpload(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, upload := range s.uploads {
		if upload.ID == c.Params("id") {
			s.uploads = append(s.uploads[:idx], s.uploads[idx+1:]...)
			return sendSuccess(c, "Upload deleted", nil)
		}
	}
	return sendError(c, fiber.StatusNotFound, "Upload not found", nil)
}

func (s *Server) listInvoices(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	s.mu.Lock()
	defer s.mu.Unlock()
	status := strings.ToLower(c.Query("status"))
	matched := []models.Invoice{}
	for _, invoice := range s.invoices {
		if status == "" || strings.ToLower(invoice.Status) == status {
			matched = append(matched, invoice)
		}
	}
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return sendList(c, matched[start:end], len(matched), page, limit)
}

func (s *Server) updateBilling(c *fiber.Ctx) error {
	var payload models.Billing
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billing = payload
	return sendSuccess(c, "Billing updated", s.billing)
}

func (s *Server) updateAccount(c *fiber.Ctx) error {
	var payload models.AccountSettings
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
	}
	if strings.TrimSpace(payload.InstituteName) == "" {
		return sendError(c, fiber.StatusUnprocessableEntity, "Validation failed", map[string]string{"instituteName": "Institute name is required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = payload
	return sendSuccess(c, "Account updated", s.account)
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var payload models.PasswordChange
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request payload", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload.CurrentPassword != s.password() {
		return sendError(c, fiber.StatusBadRequest, "Current password is incorrect", map[string]string{"currentPassword": "Current password is incorrect"})
	}
	s.passwordChanges = append(s.passwordChanges, payload)
	return sendSuccess(c, "Password changed", nil)
}

// password returns the current account password. Callers hold s.mu.
func (s *Server) password() string {
	if n := len(s.passwordChanges); n > 0 {
		return s.passwordChanges[n-1].NewPassword
	}
	return DefaultPassword
}
