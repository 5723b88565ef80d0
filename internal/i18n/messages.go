// Package i18n localizes the user-facing messages the API returns alongside
// machine-readable error codes.
package i18n

import (
	"golang.org/x/text/language"

	"server/internal/domain"
)

var supported = []language.Tag{
	language.English,
	language.Chinese,
}

var matcher = language.NewMatcher(supported)

// Match normalizes an arbitrary locale hint ("zh-CN", "en-US;q=0.8") to one
// of the supported locales.
func Match(hints ...string) string {
	tags := make([]language.Tag, 0, len(hints))
	for _, hint := range hints {
		if hint == "" {
			continue
		}
		if tag, err := language.Parse(hint); err == nil {
			tags = append(tags, tag)
		}
	}
	tag, _, _ := matcher.Match(tags...)
	base, _ := tag.Base()
	if base.String() == "zh" {
		return "zh"
	}
	return "en"
}

// catalog maps error codes to per-locale user messages. Codes double as
// message keys so a missing translation degrades to the kind fallback, never
// to a raw internal message.
var catalog = map[string]map[string]string{
	"prompt_required": {
		"en": "Please enter a prompt.",
		"zh": "请输入提示词。",
	},
	"aspect_ratio_invalid": {
		"en": "The selected aspect ratio is not supported.",
		"zh": "不支持所选的宽高比。",
	},
	"count_invalid": {
		"en": "The number of images must be between 1 and 8.",
		"zh": "生成数量必须在 1-8 之间。",
	},
	"query_required": {
		"en": "Please enter a search query.",
		"zh": "请输入搜索查询。",
	},
	"effects_required": {
		"en": "The effect list is missing or malformed.",
		"zh": "效果列表缺失或格式错误。",
	},
	"seed_image_invalid": {
		"en": "The uploaded image could not be read.",
		"zh": "无法读取上传的图片。",
	},
	"selection_required": {
		"en": "Please select an image first.",
		"zh": "请先选择一张图片。",
	},
	"operation_not_found": {
		"en": "This generation task could not be found. It may have expired.",
		"zh": "找不到该生成任务,可能已过期。",
	},
	"safety_blocked": {
		"en": "The request was blocked by the content safety policy.",
		"zh": "请求被内容安全策略拦截。",
	},
	"quota_exceeded": {
		"en": "The service is busy right now. Please try again in a moment.",
		"zh": "服务繁忙,请稍后重试。",
	},
	"network_error": {
		"en": "A network error occurred. Please try again.",
		"zh": "网络错误,请重试。",
	},
	"server_error": {
		"en": "The generation service had a temporary problem. Please try again.",
		"zh": "生成服务暂时出现问题,请重试。",
	},
	"store_unavailable": {
		"en": "The task store is temporarily unavailable. Please try again.",
		"zh": "任务存储暂时不可用,请重试。",
	},
	"video_timeout": {
		"en": "Video generation is taking too long. Please try again later.",
		"zh": "视频生成耗时过长,请稍后重试。",
	},
	"video_failed": {
		"en": "Video generation failed.",
		"zh": "视频生成失败。",
	},
	"video_completed_no_result": {
		"en": "Video generation finished but produced no video.",
		"zh": "视频生成已完成,但未产生视频。",
	},
	"no_variations_generated": {
		"en": "None of the variations could be generated. Please try again.",
		"zh": "所有变体生成均失败,请重试。",
	},
	"no_operation_name": {
		"en": "The generation service returned an unusable response. Please try again.",
		"zh": "生成服务返回了无法使用的响应,请重试。",
	},
	"generation_failed": {
		"en": "Generation failed. Please adjust the prompt and try again.",
		"zh": "生成失败,请调整提示词后重试。",
	},
	"invalid_request": {
		"en": "The request was rejected by the generation service.",
		"zh": "请求被生成服务拒绝。",
	},
	"library_empty": {
		"en": "The asset library is empty.",
		"zh": "素材库为空。",
	},
	"invalid_body": {
		"en": "The request body could not be parsed.",
		"zh": "无法解析请求内容。",
	},
}

// kindFallbacks cover codes without a dedicated translation.
var kindFallbacks = map[domain.Kind]map[string]string{
	domain.KindValidation: {
		"en": "The request is invalid.",
		"zh": "请求无效。",
	},
	domain.KindNotFound: {
		"en": "The requested resource was not found.",
		"zh": "找不到请求的资源。",
	},
	domain.KindTransient: {
		"en": "A temporary problem occurred. Please try again.",
		"zh": "出现临时问题,请重试。",
	},
	domain.KindPolicyRejected: {
		"en": "The request was blocked by the content safety policy.",
		"zh": "请求被内容安全策略拦截。",
	},
}

const (
	fallbackEN = "Something went wrong. Please try again."
	fallbackZH = "出现错误,请重试。"
)

// Message returns the localized user message for an error.
func Message(locale string, err error) string {
	if locale != "zh" {
		locale = "en"
	}
	code := domain.CodeOf(err)
	if byLocale, ok := catalog[code]; ok {
		if msg, ok := byLocale[locale]; ok {
			return msg
		}
	}
	if byLocale, ok := kindFallbacks[domain.KindOf(err)]; ok {
		if msg, ok := byLocale[locale]; ok {
			return msg
		}
	}
	if locale == "zh" {
		return fallbackZH
	}
	return fallbackEN
}
