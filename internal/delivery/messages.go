package delivery

import "fmt"

// Rendered captcha messages per channel and purpose.

const (
	BindingMailSubject = "Confirm your email address"
	AuthMailSubject    = "Identity verification"
)

func CellphoneBindingText(code string) string {
	return fmt.Sprintf("Your registration code is %s. It is valid for 30 minutes.", code)
}

func CellphoneAuthText(code string) string {
	return fmt.Sprintf("Your login code is %s. It is valid for 30 minutes.", code)
}

func EmailBindingBody(code string) string {
	return fmt.Sprintf(
		"<p>Use the following code to confirm your email address:</p><p><b>%s</b></p><p>The code is valid for 24 hours.</p>",
		code)
}

func EmailAuthBody(code string) string {
	return fmt.Sprintf(
		"<p>Use the following code to verify your identity:</p><p><b>%s</b></p><p>The code is valid for 24 hours.</p>",
		code)
}
