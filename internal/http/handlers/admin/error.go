package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/tourdesk-next/internal/http/handlers/shared"
	"github.com/tourdesk-next/internal/http/response"
	"github.com/tourdesk-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []handlershared.MappedError, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

var productErrorRules = []handlershared.MappedError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductInvalid, Code: response.CodeBadRequest, Key: "error.product_invalid"},
	{Target: service.ErrSlugExists, Code: response.CodeConflict, Key: "error.slug_exists"},
	{Target: service.ErrChoiceInvalid, Code: response.CodeBadRequest, Key: "error.choice_invalid"},
}

var channelErrorRules = []handlershared.MappedError{
	{Target: service.ErrChannelNotFound, Code: response.CodeNotFound, Key: "error.channel_not_found"},
	{Target: service.ErrChannelInvalid, Code: response.CodeBadRequest, Key: "error.channel_invalid"},
	{Target: service.ErrChannelIDExists, Code: response.CodeConflict, Key: "error.channel_id_exists"},
}

var pricingErrorRules = handlershared.ConcatMappedErrors(
	[]handlershared.MappedError{
		{Target: service.ErrPricingRuleInvalid, Code: response.CodeBadRequest, Key: "error.pricing_rule_invalid"},
		{Target: service.ErrPricingRuleNotFound, Code: response.CodeNotFound, Key: "error.pricing_rule_not_found"},
		{Target: service.ErrPricingDateInvalid, Code: response.CodeBadRequest, Key: "error.pricing_date_invalid"},
		{Target: service.ErrPricingRangeInvalid, Code: response.CodeBadRequest, Key: "error.pricing_range_invalid"},
		{Target: service.ErrPricingRangeTooLarge, Code: response.CodeBadRequest, Key: "error.pricing_range_too_large"},
		{Target: service.ErrBatchSaveInvalid, Code: response.CodeBadRequest, Key: "error.batch_save_invalid"},
		{Target: service.ErrBatchSaveTooLarge, Code: response.CodeBadRequest, Key: "error.batch_save_too_large"},
		{Target: service.ErrBatchJobNotFound, Code: response.CodeNotFound, Key: "error.batch_job_not_found"},
	},
	productErrorRules,
	channelErrorRules,
)

// parseIDParam 解析路径中的数字 ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
