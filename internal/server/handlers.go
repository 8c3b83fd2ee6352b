package server

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/finetune"
	"github.com/quantmind-br/docstranslate/internal/translate"
	"github.com/quantmind-br/docstranslate/internal/utils"
)

const bearerPrefix = "bearer "

type handlers struct {
	parser     domain.RepositoryParser
	translator domain.Translator
	store      finetune.Store
	logger     *utils.Logger
}

type finetuneRequest struct {
	SourceText *string `json:"source_text"`
	OutputText *string `json:"output_text"`
}

func errorBody(detail string) gin.H {
	return gin.H{"detail": detail}
}

func (h *handlers) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Hello": "Something"})
}

func (h *handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"up": true})
}

// parse handles GET /parse?repoUrl=
func (h *handlers) parse(c *gin.Context) {
	result, err := h.parser.Parse(c.Request.Context(), c.Query("repoUrl"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// translate handles POST /translate with the markdown source as raw body
func (h *handlers) translate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.fail(c, err)
		return
	}
	if !utf8.Valid(body) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("request body is not valid UTF-8"))
		return
	}

	text, err := h.translator.Translate(c.Request.Context(), domain.TranslationRequest{
		Token:        bearerToken(c.GetHeader("Authorization")),
		LanguageFrom: c.DefaultQuery("language_from", translate.DefaultLanguageFrom),
		LanguageTo:   c.DefaultQuery("language_to", translate.DefaultLanguageTo),
		Source:       string(body),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": text})
}

// finetune handles POST /finetune and answers with every example the caller owns
func (h *handlers) finetune(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		h.fail(c, domain.ErrMissingToken)
		return
	}

	var req finetuneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if req.SourceText == nil || req.OutputText == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("source_text and output_text are required"))
		return
	}

	examples, err := h.store.Append(c.Request.Context(), token,
		c.DefaultQuery("language_from", translate.DefaultLanguageFrom),
		c.DefaultQuery("language_to", translate.DefaultLanguageTo),
		finetune.Example{SourceText: *req.SourceText, OutputText: *req.OutputText},
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, examples)
}

func (h *handlers) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorBody("Not Found"))
}

// fail renders err as {"detail": message} with its classified status
func (h *handlers) fail(c *gin.Context, err error) {
	statusErr := domain.Classify(err)
	if statusErr.Code >= http.StatusInternalServerError {
		requestLogger(c, h.logger).Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.AbortWithStatusJSON(statusErr.Code, errorBody(statusErr.Message))
}

// bearerToken extracts the token from an Authorization header. The token is
// an opaque key and is never verified.
func bearerToken(header string) string {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
