package email

import "fmt"

// VerificationMessage builds the subject and body for the account
// verification mail. The link hits GET /api/auth/verify.
func VerificationMessage(publicURL, token string) (subject, body string) {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", publicURL, token)
	subject = "Verify your email address"
	body = fmt.Sprintf(
		`<p>Welcome! Please confirm your email address by clicking the link below.</p>
<p><a href=%q>Verify email</a></p>
<p>If you did not create an account, you can ignore this message.</p>`, link)
	return subject, body
}

// PasswordResetMessage builds the subject and body for the password reset
// mail. The link hits GET /api/auth/reset-password for pre-validation.
func PasswordResetMessage(publicURL, token string) (subject, body string) {
	link := fmt.Sprintf("%s/api/auth/reset-password?token=%s", publicURL, token)
	subject = "Reset your password"
	body = fmt.Sprintf(
		`<p>A password reset was requested for your account.</p>
<p><a href=%q>Reset password</a></p>
<p>The link is valid for a limited time and can be used once. If you did not
request a reset, you can ignore this message.</p>`, link)
	return subject, body
}
