package apple

import "errors"

var (
	// ErrInvalidRequest indicates a required request parameter is missing or empty.
	ErrInvalidRequest = errors.New("apple: invalid request")
	// ErrUnknownBuildConfiguration signals a build configuration outside the known set.
	ErrUnknownBuildConfiguration = errors.New("apple: unknown build configuration")
	// ErrMissingRefreshToken indicates Apple answered a code exchange without a refresh token.
	ErrMissingRefreshToken = errors.New("apple: no refresh token in response")
	// ErrProviderRejected indicates Apple answered with a non-2xx status.
	ErrProviderRejected = errors.New("apple: provider rejected request")
	// ErrSigning indicates the client assertion could not be produced.
	ErrSigning = errors.New("apple: client assertion signing failed")
)
