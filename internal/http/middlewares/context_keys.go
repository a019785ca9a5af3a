package middlewares

// gin context keys set by the middlewares in this package.
const (
	CtxRequestID = "request_id"
	CtxActorID   = "auth.actorID"
	CtxRealm     = "auth.realm"
	CtxPhotoKey  = "auth.photoKey"
)
