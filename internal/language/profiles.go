package language

// builtinProfiles is the static table of supported languages. The error and
// summary text here is the only place localized strings live; nothing else in
// the core branches on language identity.
var builtinProfiles = []Profile{
	{
		Code:              "en",
		DisplayName:       "English",
		EnglishName:       "English",
		RecognitionLocale: "en-IN",
		SynthesisLocale:   "en-IN",
		ResponseDirective: "Respond in English using simple, everyday words a farmer can follow.",
		Errors: ErrorTemplates{
			CaptureUnavailable: "Microphone is not available. Please check your device settings.",
			Recognition:        "Sorry, I couldn't understand that. Please try again.",
			Inference:          "Sorry, I couldn't process your request. Please try again.",
		},
		SummaryFormat: "Detected: %s (severity: %s). First step: %s",
		SeverityNames: map[string]string{
			"low":    "low",
			"medium": "medium",
			"high":   "high",
		},
	},
	{
		Code:              "hi",
		DisplayName:       "हिन्दी",
		EnglishName:       "Hindi",
		RecognitionLocale: "hi-IN",
		SynthesisLocale:   "hi-IN",
		ResponseDirective: "Respond in Hindi (हिन्दी) using simple, everyday words a farmer can follow.",
		Errors: ErrorTemplates{
			CaptureUnavailable: "माइक्रोफ़ोन उपलब्ध नहीं है। कृपया डिवाइस सेटिंग जाँचें।",
			Recognition:        "माफ़ कीजिए, मैं आपकी बात समझ नहीं पाया। कृपया दोबारा कोशिश करें।",
			Inference:          "माफ़ कीजिए, मैं आपका अनुरोध पूरा नहीं कर सका। कृपया दोबारा कोशिश करें।",
		},
		SummaryFormat: "पहचान: %s (गंभीरता: %s)। पहला उपाय: %s",
		SeverityNames: map[string]string{
			"low":    "कम",
			"medium": "मध्यम",
			"high":   "गंभीर",
		},
	},
	{
		Code:              "mr",
		DisplayName:       "मराठी",
		EnglishName:       "Marathi",
		RecognitionLocale: "mr-IN",
		SynthesisLocale:   "mr-IN",
		ResponseDirective: "Respond in Marathi (मराठी) using simple, everyday words a farmer can follow.",
		Errors: ErrorTemplates{
			CaptureUnavailable: "मायक्रोफोन उपलब्ध नाही. कृपया डिव्हाइस सेटिंग्ज तपासा.",
			Recognition:        "माफ करा, मला ते समजले नाही. कृपया पुन्हा प्रयत्न करा.",
			Inference:          "माफ करा, मी तुमची विनंती पूर्ण करू शकलो नाही. कृपया पुन्हा प्रयत्न करा.",
		},
		SummaryFormat: "निदान: %s (तीव्रता: %s). पहिला उपाय: %s",
		SeverityNames: map[string]string{
			"low":    "कमी",
			"medium": "मध्यम",
			"high":   "तीव्र",
		},
	},
	{
		Code:              "pa",
		DisplayName:       "ਪੰਜਾਬੀ",
		EnglishName:       "Punjabi",
		RecognitionLocale: "pa-IN",
		SynthesisLocale:   "pa-IN",
		ResponseDirective: "Respond in Punjabi (ਪੰਜਾਬੀ) using simple, everyday words a farmer can follow.",
		Errors: ErrorTemplates{
			CaptureUnavailable: "ਮਾਈਕ੍ਰੋਫੋਨ ਉਪਲਬਧ ਨਹੀਂ ਹੈ। ਕਿਰਪਾ ਕਰਕੇ ਡਿਵਾਈਸ ਸੈਟਿੰਗਾਂ ਦੀ ਜਾਂਚ ਕਰੋ।",
			Recognition:        "ਮਾਫ਼ ਕਰਨਾ, ਮੈਂ ਸਮਝ ਨਹੀਂ ਸਕਿਆ। ਕਿਰਪਾ ਕਰਕੇ ਦੁਬਾਰਾ ਕੋਸ਼ਿਸ਼ ਕਰੋ।",
			Inference:          "ਮਾਫ਼ ਕਰਨਾ, ਮੈਂ ਤੁਹਾਡੀ ਬੇਨਤੀ ਪੂਰੀ ਨਹੀਂ ਕਰ ਸਕਿਆ। ਕਿਰਪਾ ਕਰਕੇ ਦੁਬਾਰਾ ਕੋਸ਼ਿਸ਼ ਕਰੋ।",
		},
		SummaryFormat: "ਪਛਾਣ: %s (ਗੰਭੀਰਤਾ: %s)। ਪਹਿਲਾ ਕਦਮ: %s",
		SeverityNames: map[string]string{
			"low":    "ਘੱਟ",
			"medium": "ਦਰਮਿਆਨੀ",
			"high":   "ਗੰਭੀਰ",
		},
	},
	{
		Code:              "ta",
		DisplayName:       "தமிழ்",
		EnglishName:       "Tamil",
		RecognitionLocale: "ta-IN",
		SynthesisLocale:   "ta-IN",
		ResponseDirective: "Respond in Tamil (தமிழ்) using simple, everyday words a farmer can follow.",
		Errors: ErrorTemplates{
			CaptureUnavailable: "மைக்ரோஃபோன் கிடைக்கவில்லை. சாதன அமைப்புகளை சரிபார்க்கவும்.",
			Recognition:        "மன்னிக்கவும், எனக்கு புரியவில்லை. மீண்டும் முயற்சிக்கவும்.",
			Inference:          "மன்னிக்கவும், உங்கள் கோரிக்கையை முடிக்க முடியவில்லை. மீண்டும் முயற்சிக்கவும்.",
		},
		SummaryFormat: "கண்டறிதல்: %s (தீவிரம்: %s). முதல் நடவடிக்கை: %s",
		SeverityNames: map[string]string{
			"low":    "குறைவு",
			"medium": "நடுத்தரம்",
			"high":   "கடுமை",
		},
	},
}
