package msg

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translation "github.com/go-playground/validator/v10/translations/en"
	zh_translation "github.com/go-playground/validator/v10/translations/zh"
)

// Response 统一成功响应结构
type Response struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data *map[string]any `json:"data"`
}

// ErrResponseST 统一错误响应结构
type ErrResponseST struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data *map[string]any `json:"data"`
	Err  any             `json:"err"`
}

var trans ut.Translator

// initTranslator 初始化校验错误翻译器，绑定到gin的validator上
func initTranslator(language string) error {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if ok {
		zhT := zh.New()
		enT := en.New()

		// 第一个参数是备用语言
		uni := ut.New(enT, enT, zhT)

		trans, ok = uni.GetTranslator(language)
		if !ok {
			return fmt.Errorf("not found translator %s", language)
		}

		switch language {
		case "zh":
			if err := zh_translation.RegisterDefaultTranslations(validate, trans); err != nil {
				return err
			}
		default:
			if err := en_translation.RegisterDefaultTranslations(validate, trans); err != nil {
				return err
			}
		}
	}

	return nil
}

// remove 去掉校验错误key中的结构体名前缀
func remove(errors map[string]string) map[string]string {
	result := map[string]string{}
	for key, value := range errors {
		result[key[strings.Index(key, ".")+1:]] = value
	}
	return result
}

func SuccessResponse(msg string, dataPtr *map[string]any) *Response {
	if dataPtr == nil {
		emptyMap := make(map[string]any)
		dataPtr = &emptyMap
	}
	return &Response{
		Code: 200,
		Msg:  msg,
		Data: dataPtr,
	}
}

func SuccessResponseStr(msg string) *Response {
	return &Response{
		Code: 200,
		Msg:  msg,
		Data: &map[string]any{},
	}
}

// ErrResponse 构造错误响应，校验错误会被翻译成中文并按字段展开
func ErrResponse(msg string, respErr error) *ErrResponseST {
	if err := initTranslator("zh"); err != nil {
		panic(err)
	}
	if validationErrs, ok := respErr.(validator.ValidationErrors); ok {
		return &ErrResponseST{
			Code: 201,
			Msg:  msg,
			Data: &map[string]any{},
			Err:  remove(validationErrs.Translate(trans)),
		}
	}
	return &ErrResponseST{
		Code: 201,
		Msg:  msg,
		Data: &map[string]any{},
		Err:  respErr.Error(),
	}
}

func ErrResponseStr(msg string) *ErrResponseST {
	return &ErrResponseST{
		Code: 201,
		Msg:  msg,
		Data: &map[string]any{},
		Err:  "",
	}
}
