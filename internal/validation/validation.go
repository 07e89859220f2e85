// Package validation はgo-playground/validatorによる入力検証と、
// 検証エラーのAPIErrorへの変換を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/digitaldelta/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーのフィールド名にはJSONのキー名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct は構造体をタグに従って検証する。
// 検証に失敗した場合はフィールド別のメッセージを持つ VALIDATION_FAILED エラーを返す。
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return model.NewValidationError(Fields(verrs))
	}
	return fmt.Errorf("failed to validate: %w", err)
}

// Fields は検証エラーをフィールド名とメッセージの対応に変換する。
func Fields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = msgForTag(fe)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です"
	case "email":
		return "メールアドレスの形式が正しくありません"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s文字以上で入力してください", fe.Param())
		}
		return fmt.Sprintf("%s以上の値を指定してください", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s文字以内で入力してください", fe.Param())
		}
		return fmt.Sprintf("%s以下の値を指定してください", fe.Param())
	case "gte":
		return fmt.Sprintf("%s以上の値を指定してください", fe.Param())
	case "lte":
		return fmt.Sprintf("%s以下の値を指定してください", fe.Param())
	case "oneof":
		return fmt.Sprintf("次のいずれかを指定してください: %s", fe.Param())
	case "latitude":
		return "緯度の形式が正しくありません"
	case "longitude":
		return "経度の形式が正しくありません"
	default:
		return fmt.Sprintf("%s の検証に失敗しました", fe.Tag())
	}
}
