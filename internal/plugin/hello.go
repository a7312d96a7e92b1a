package plugin

import "fmt"

// Hello is the bundled example plugin: it registers /hello, which greets the
// caller and shows plugin authors the shape of the API.
type Hello struct{}

func (Hello) Name() string {
	return "hello"
}

func (Hello) Init(api *API) error {
	api.RegisterCommand("/hello", func(caller Caller, args string, send SendFunc) error {
		name := caller.Nickname()
		if name == "" {
			name = "stranger"
		}
		return send(fmt.Sprintf("Hello, %s!", name))
	})
	return nil
}
