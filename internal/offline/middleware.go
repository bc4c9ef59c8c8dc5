package offline

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Middleware mounts the worker's fetch policy in front of the app: the
// downstream handler chain plays the role of the network. GET responses are
// written through to the active generation; when the chain fails with a
// network-class error the worker's fallback chain answers instead.
func Middleware(w *Worker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		req := Request{
			Method: fiber.MethodGet,
			Path:   c.OriginalURL(),
			Accept: c.Get(fiber.HeaderAccept),
		}

		result, err := w.handle(c.Context(), req, NetworkFunc(func(_ context.Context, _ Request) (Response, error) {
			if err := c.Next(); err != nil {
				return Response{}, err
			}
			resp := c.Response()
			body := make([]byte, len(resp.Body()))
			copy(body, resp.Body())
			return Response{
				StatusCode:  resp.StatusCode(),
				ContentType: string(resp.Header.ContentType()),
				Body:        body,
			}, nil
		}))
		if err != nil {
			return err
		}

		// Network responses are already written to the context by c.Next.
		if result.Source == SourceNetwork {
			return nil
		}

		c.Response().Reset()
		c.Set(fiber.HeaderContentType, result.ContentType)
		return c.Status(result.StatusCode).Send(result.Body)
	}
}
