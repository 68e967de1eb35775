package echo

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	app "github.com/goldmine/exercise-archive/internal/application/upload"
	"github.com/goldmine/exercise-archive/internal/archive"
	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
)

type UploadHandler struct {
	create   app.CreateUpload
	get      app.GetUpload
	commit   app.CommitUpload
	remove   app.DeleteUpload
	validate *validator.Validate
}

type commitSeriesRequest struct {
	Number       int    `json:"number" validate:"gte=0"`
	Title        string `json:"title"`
	TexFile      string `json:"tex_file"`
	PDFFile      string `json:"pdf_file"`
	SolutionFile string `json:"solution_file"`
}

type commitRequest struct {
	Overwrite bool                  `json:"overwrite"`
	Series    []commitSeriesRequest `json:"series" validate:"dive"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewUploadHandler(create app.CreateUpload, get app.GetUpload, commit app.CommitUpload, remove app.DeleteUpload) *UploadHandler {
	return &UploadHandler{
		create:   create,
		get:      get,
		commit:   commit,
		remove:   remove,
		validate: validator.New(),
	}
}

func (h *UploadHandler) CreateUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_archive",
			Message: "multipart field 'file' with a zip archive is required",
		}})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_archive",
			Message: "uploaded archive could not be read",
		}})
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_archive",
			Message: "uploaded archive could not be read",
		}})
	}

	lectureID, _ := strconv.ParseInt(c.FormValue("lecture_id"), 10, 64)
	year, _ := strconv.Atoi(c.FormValue("year"))

	out, err := h.create.Execute(c.Request().Context(), app.CreateUploadInput{
		Archive:    data,
		Filename:   fileHeader.Filename,
		LectureID:  lectureID,
		Year:       year,
		Semester:   c.FormValue("semester"),
		Professors: c.FormValue("professors"),
		Assistants: c.FormValue("assistants"),
		FSPath:     c.FormValue("fs_path"),
	})
	if err != nil {
		return h.createError(c, err)
	}

	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *UploadHandler) createError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, app.ErrMissingArchive):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_archive",
			Message: "multipart field 'file' with a zip archive is required",
		}})
	case errors.Is(err, app.ErrMissingMetadata):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_metadata",
			Message: "lecture_id and year are required",
		}})
	case errors.Is(err, app.ErrInvalidSemester):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_semester",
			Message: "semester must be HS or FS",
		}})
	case errors.Is(err, app.ErrLectureNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "lecture_not_found",
			Message: "referenced lecture does not exist",
		}})
	case errors.Is(err, archive.ErrArchiveTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, apiResponse{Error: &errorBody{
			Code:    "archive_too_large",
			Message: err.Error(),
		}})
	case errors.Is(err, archive.ErrUnsafeArchivePath), errors.Is(err, archive.ErrInvalidArchive):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_archive",
			Message: err.Error(),
		}})
	}
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: "failed to create upload job",
	}})
}

func (h *UploadHandler) GetUpload(c echo.Context) error {
	out, err := h.get.Execute(c.Request().Context(), app.GetUploadInput{JobID: c.Param("id")})
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "job_not_found",
				Message: "upload job does not exist",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to load upload job",
		}})
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *UploadHandler) CommitUpload(c echo.Context) error {
	var req commitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: err.Error(),
		}})
	}

	in := app.CommitUploadInput{JobID: c.Param("id"), Overwrite: req.Overwrite}
	for _, s := range req.Series {
		in.Series = append(in.Series, app.CommitSeriesInput{
			Number:       s.Number,
			Title:        s.Title,
			TexFile:      s.TexFile,
			PDFFile:      s.PDFFile,
			SolutionFile: s.SolutionFile,
		})
	}

	out, err := h.commit.Execute(c.Request().Context(), in)
	if err != nil {
		return h.commitError(c, err)
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *UploadHandler) commitError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "job_not_found",
			Message: "upload job does not exist",
		}})
	case errors.Is(err, domain.ErrNotCommittable):
		return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
			Code:    "not_committable",
			Message: "job is not in a committable state",
		}})
	case errors.Is(err, app.ErrNoSeries):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "no_series",
			Message: "commit payload contains no series",
		}})
	case errors.Is(err, app.ErrDuplicateSeriesNumber):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "duplicate_series_number",
			Message: err.Error(),
		}})
	case errors.Is(err, app.ErrBlockingDraft):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "blocking_draft",
			Message: err.Error(),
		}})
	case errors.Is(err, app.ErrStagedFileMissing):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "staged_file_missing",
			Message: err.Error(),
		}})
	case errors.Is(err, app.ErrCommitFailed):
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "commit_failed",
			Message: err.Error(),
		}})
	}
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: "failed to commit upload job",
	}})
}

func (h *UploadHandler) DeleteUpload(c echo.Context) error {
	err := h.remove.Execute(c.Request().Context(), app.DeleteUploadInput{JobID: c.Param("id")})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "job_not_found",
				Message: "upload job does not exist",
			}})
		case errors.Is(err, domain.ErrNotDeletable):
			return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
				Code:    "not_deletable",
				Message: "imported or committing jobs cannot be deleted",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to delete upload job",
		}})
	}
	return c.NoContent(http.StatusNoContent)
}
