package email

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	subjectVerification  = "Welcome to HarvestHub - Verify Your Email"
	subjectPasswordReset = "HarvestHub - Password Reset Request"
	subjectWelcome       = "Welcome to HarvestHub!"
)

var templates = template.Must(template.New("email").Parse(`
{{define "verification"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #0ea5e9 0%, #0284c7 100%); padding: 30px; border-radius: 10px; margin-bottom: 30px;">
    <h1 style="color: white; margin: 0; text-align: center; font-size: 28px;">Welcome to HarvestHub!</h1>
  </div>
  <div style="background: #f8fafc; padding: 30px; border-radius: 10px; border: 1px solid #e2e8f0;">
    <h2 style="color: #1e293b; margin-top: 0;">Hi {{.Name}},</h2>
    <p style="color: #475569; font-size: 16px; line-height: 1.6;">
      Thank you for joining HarvestHub! We're excited to have you as part of our community.
    </p>
    <p style="color: #475569; font-size: 16px; line-height: 1.6;">
      To complete your registration and start exploring fresh groceries, please verify your email address by clicking the button below:
    </p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.URL}}" style="background: #0ea5e9; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold; font-size: 16px; display: inline-block;">
        Verify Email Address
      </a>
    </div>
    <p style="color: #64748b; font-size: 14px; line-height: 1.6;">
      If the button doesn't work, you can copy and paste this link into your browser:
    </p>
    <p style="color: #0ea5e9; font-size: 14px; word-break: break-all;">{{.URL}}</p>
    <hr style="border: none; border-top: 1px solid #e2e8f0; margin: 30px 0;">
    <p style="color: #64748b; font-size: 14px; line-height: 1.6;">
      This verification link will expire in 24 hours. If you didn't create an account with HarvestHub, please ignore this email.
    </p>
  </div>
  <div style="text-align: center; margin-top: 30px; color: #64748b; font-size: 14px;">
    <p>Happy Shopping!</p>
    <p><strong>The HarvestHub Team</strong></p>
  </div>
</div>
{{end}}

{{define "password_reset"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #0ea5e9 0%, #0284c7 100%); padding: 30px; border-radius: 10px; margin-bottom: 30px;">
    <h1 style="color: white; margin: 0; text-align: center; font-size: 28px;">Password Reset Request</h1>
  </div>
  <div style="background: #f8fafc; padding: 30px; border-radius: 10px; border: 1px solid #e2e8f0;">
    <h2 style="color: #1e293b; margin-top: 0;">Hi {{.Name}},</h2>
    <p style="color: #475569; font-size: 16px; line-height: 1.6;">
      We received a request to reset your password for your HarvestHub account.
    </p>
    <p style="color: #475569; font-size: 16px; line-height: 1.6;">
      If you made this request, click the button below to reset your password:
    </p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.URL}}" style="background: #dc2626; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold; font-size: 16px; display: inline-block;">
        Reset Password
      </a>
    </div>
    <p style="color: #64748b; font-size: 14px; line-height: 1.6;">
      If the button doesn't work, you can copy and paste this link into your browser:
    </p>
    <p style="color: #dc2626; font-size: 14px; word-break: break-all;">{{.URL}}</p>
    <hr style="border: none; border-top: 1px solid #e2e8f0; margin: 30px 0;">
    <p style="color: #64748b; font-size: 14px; line-height: 1.6;">
      This password reset link will expire in 30 minutes. If you didn't request a password reset, please ignore this email or contact our support team if you have concerns.
    </p>
  </div>
  <div style="text-align: center; margin-top: 30px; color: #64748b; font-size: 14px;">
    <p>Stay Safe!</p>
    <p><strong>The HarvestHub Team</strong></p>
  </div>
</div>
{{end}}

{{define "welcome"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #0ea5e9 0%, #0284c7 100%); padding: 30px; border-radius: 10px; margin-bottom: 30px;">
    <h1 style="color: white; margin: 0; text-align: center; font-size: 28px;">Welcome to HarvestHub!</h1>
  </div>
  <div style="background: #f8fafc; padding: 30px; border-radius: 10px; border: 1px solid #e2e8f0;">
    <h2 style="color: #1e293b; margin-top: 0;">Hi {{.Name}},</h2>
    <p style="color: #475569; font-size: 16px; line-height: 1.6;">
      Your email has been successfully verified! Welcome to HarvestHub, your trusted partner for fresh groceries and quality products.
    </p>
    <div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #0ea5e9;">
      <h3 style="color: #0ea5e9; margin-top: 0;">What's next?</h3>
      <ul style="color: #475569; line-height: 1.6;">
        <li>Explore our wide range of fresh fruits and vegetables</li>
        <li>Add your favorite items to your cart</li>
        <li>Set up delivery preferences</li>
        <li>Enjoy fast and reliable delivery</li>
      </ul>
    </div>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.URL}}" style="background: #0ea5e9; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold; font-size: 16px; display: inline-block;">
        Start Shopping
      </a>
    </div>
    <p style="color: #475569; font-size: 16px; line-height: 1.6;">
      If you have any questions, our customer support team is here to help you 24/7.
    </p>
  </div>
  <div style="text-align: center; margin-top: 30px; color: #64748b; font-size: 14px;">
    <p>Happy Shopping!</p>
    <p><strong>The HarvestHub Team</strong></p>
  </div>
</div>
{{end}}
`))

type templateData struct {
	Name string
	URL  string
}

func renderTemplate(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
