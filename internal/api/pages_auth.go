package api

import (
	"net/http"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func loginPage(r *http.Request, email, errMsg string) Node {
	return authPage("Sign in",
		H1(Text("Sign in")),
		P(Class("muted"), Text("Ask your databases questions in plain language.")),
		notice("error", errMsg),
		Form(
			Method("post"),
			Action("/auth/login"),
			Class("auth-form"),
			csrfField(r),
			Label(For("email"), Text("E-mail")),
			Input(ID("email"), Type("email"), Name("email"), Value(email), AutoComplete("email"), Required()),
			Label(For("password"), Text("Password")),
			Input(ID("password"), Type("password"), Name("password"), AutoComplete("current-password"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Sign in")),
		),
		P(Text("No account yet? "), A(Href("/auth/register"), Text("Create one"))),
	)
}

func registerPage(r *http.Request, name, email, errMsg string) Node {
	return authPage("Create account",
		H1(Text("Create account")),
		notice("error", errMsg),
		Form(
			Method("post"),
			Action("/auth/register"),
			Class("auth-form"),
			csrfField(r),
			Label(For("name"), Text("Name")),
			Input(ID("name"), Type("text"), Name("name"), Value(name), AutoComplete("name"), Required()),
			Label(For("email"), Text("E-mail")),
			Input(ID("email"), Type("email"), Name("email"), Value(email), AutoComplete("email"), Required()),
			Label(For("password"), Text("Password")),
			Input(ID("password"), Type("password"), Name("password"), AutoComplete("new-password"), Required()),
			Label(For("confirm"), Text("Confirm password")),
			Input(ID("confirm"), Type("password"), Name("confirm"), AutoComplete("new-password"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Create account")),
		),
		P(Text("Already registered? "), A(Href("/auth/login"), Text("Sign in"))),
	)
}
